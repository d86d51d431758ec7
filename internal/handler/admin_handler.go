package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/storage"

	"github.com/rs/zerolog"
)

// Authenticator exchanges the admin password for a signed token.
type Authenticator interface {
	Login(password string) (*auth.Token, error)
}

// loginRequest is the body of POST /admin/auth.
type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

// AdminHandler serves admin login and image uploads.
type AdminHandler struct {
	auth     Authenticator
	uploader storage.Uploader
	errors   errorWriter
	logger   zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(authenticator Authenticator, uploader storage.Uploader, logger zerolog.Logger) *AdminHandler {
	logger = logger.With().Str("handler", "admin").Logger()
	return &AdminHandler{
		auth:     authenticator,
		uploader: uploader,
		errors:   errorWriter{logger: logger},
		logger:   logger,
	}
}

// Login handles POST /admin/auth requests.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	token, err := h.auth.Login(req.Password)
	if err != nil {
		if errors.Is(err, model.ErrUnauthorised) {
			h.logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("admin login failed")
		}
		h.errors.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// Upload handles POST /admin/uploads multipart requests with a "file" part.
func (h *AdminHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(storage.MaxUploadSize); err != nil {
		h.errors.writeError(w, r, model.NewValidationError("file is missing or larger than 10 MiB"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errors.writeError(w, r, model.NewValidationError("file is required"))
		return
	}
	defer file.Close()

	if header.Size > storage.MaxUploadSize {
		h.errors.writeError(w, r, model.NewValidationError("file is larger than 10 MiB"))
		return
	}

	upload, err := h.uploader.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.errors.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, upload)
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health returns a handler for GET /health.
func Health(db Pinger, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Database: "unreachable"})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Database: "ok"})
	}
}
