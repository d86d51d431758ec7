// Package handler exposes the storefront services over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"storefront/internal/model"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// errorWriter maps service errors to HTTP responses.
type errorWriter struct {
	logger zerolog.Logger

	// exposeDetails includes configuration error details in responses.
	// It is off in production.
	exposeDetails bool
}

// writeError writes err as a model.ErrorResponse with the status statusFor
// picks. Server-side failures are logged at error level, client errors at
// debug.
func (e errorWriter) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := statusFor(err)

	if code == model.ErrCodeConfiguration && e.exposeDetails {
		message = err.Error()
	}

	event := e.logger.Debug()
	if status >= http.StatusInternalServerError {
		event = e.logger.Error()
	}
	event.Err(err).
		Int("status", status).
		Str("code", code).
		Str("path", r.URL.Path).
		Str("request_id", chimw.GetReqID(r.Context())).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: chimw.GetReqID(r.Context()),
	})
}

// statusFor returns the HTTP status, error code and client-facing message for
// err. Errors that are not domain errors are internal errors.
func statusFor(err error) (int, string, string) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error"
	}

	switch de.Code {
	case model.ErrCodeValidation,
		model.ErrCodeInvalidJSON,
		model.ErrCodeSignatureVerification,
		model.ErrCodeInvalidStatus,
		model.ErrCodeInvalidPromoCode,
		model.ErrCodeMetadataTooLarge,
		model.ErrCodeMalformedMetadata:
		return http.StatusBadRequest, de.Code, de.Message
	case model.ErrCodeProductNotFound, model.ErrCodeOrderNotFound, model.ErrCodeShippingRateNotFound:
		return http.StatusNotFound, de.Code, de.Message
	case model.ErrCodeInvalidTransition:
		return http.StatusConflict, de.Code, de.Error()
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized, de.Code, de.Message
	case model.ErrCodeStorageDisabled:
		return http.StatusServiceUnavailable, de.Code, de.Message
	case model.ErrCodeConfiguration:
		return http.StatusInternalServerError, de.Code, "Server is not configured to handle this request"
	case model.ErrCodeUpstreamProvider:
		return http.StatusInternalServerError, de.Code, de.Message
	}
	return http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error"
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewDomainError(model.ErrCodeInvalidJSON, "request body is empty")
		}
		return model.WrapDomainError(model.ErrCodeInvalidJSON, "invalid request body", err)
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return model.WrapDomainError(model.ErrCodeValidation, "Request validation failed", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fieldPath(fe), validationMessage(fe)))
	}
	return model.NewValidationError(strings.Join(msgs, "; "))
}

// fieldPath drops the root struct name from the error namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " item(s)"
		}
		return "must be at least " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidationError("invalid " + name + " parameter")
	}
	return v, nil
}
