package handler

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdminHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		mockReturn     *auth.Token
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			requestBody:    `{"password":"hunter2"}`,
			mockReturn:     &auth.Token{Token: "jwt", ExpiresAt: time.Now().Add(time.Hour)},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Wrong password",
			requestBody:    `{"password":"nope"}`,
			mockError:      model.ErrUnauthorised,
			expectedStatus: http.StatusUnauthorized,
			expectService:  true,
		},
		{
			name:           "Missing password",
			requestBody:    `{}`,
			expectedStatus: http.StatusBadRequest,
			expectService:  false,
		},
		{
			name:           "Secret not configured",
			requestBody:    `{"password":"hunter2"}`,
			mockError:      model.NewConfigurationError("admin token secret is not set"),
			expectedStatus: http.StatusInternalServerError,
			expectService:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuth := new(MockAuthenticator)
			handler := NewAdminHandler(mockAuth, new(MockUploader), zerolog.Nop())

			if tt.expectService {
				mockAuth.On("Login", mock.AnythingOfType("string")).Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/admin/auth", bytes.NewBufferString(tt.requestBody))
			w := httptest.NewRecorder()

			handler.Login(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"token":"jwt"`)
			}
			if tt.expectService {
				mockAuth.AssertExpectations(t)
			} else {
				mockAuth.AssertNotCalled(t, "Login", mock.Anything)
			}
		})
	}
}

func multipartBody(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("other", "value"))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestAdminHandler_Upload(t *testing.T) {
	tests := []struct {
		name           string
		field          string
		mockReturn     *storage.Upload
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			field:          "file",
			mockReturn:     &storage.Upload{URL: "https://bucket.s3.ca-central-1.amazonaws.com/products/abc.png", Key: "products/abc.png"},
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Missing file",
			field:          "",
			expectedStatus: http.StatusBadRequest,
			expectService:  false,
		},
		{
			name:           "Storage disabled",
			field:          "file",
			mockError:      model.ErrStorageDisabled,
			expectedStatus: http.StatusServiceUnavailable,
			expectService:  true,
		},
		{
			name:           "Not an image",
			field:          "file",
			mockError:      model.NewValidationError("only image uploads are allowed"),
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := new(MockUploader)
			handler := NewAdminHandler(new(MockAuthenticator), uploader, zerolog.Nop())

			if tt.expectService {
				uploader.On("Upload", mock.Anything, "bunny.png", "image/png", mock.Anything).Return(tt.mockReturn, tt.mockError)
			}

			body, contentType := multipartBody(t, tt.field, "bunny.png", "image/png", []byte("\x89PNG fake"))
			req := httptest.NewRequest(http.MethodPost, "/admin/uploads", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			handler.Upload(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectService {
				uploader.AssertExpectations(t)
			} else {
				uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
		expectedBody   string
	}{
		{name: "Healthy", expectedStatus: http.StatusOK, expectedBody: `{"status":"healthy","database":"ok"}`},
		{name: "Database down", pingErr: errors.New("connection refused"), expectedStatus: http.StatusServiceUnavailable, expectedBody: `{"status":"unhealthy","database":"unreachable"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			Health(stubPinger{err: tt.pingErr}, zerolog.Nop())(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
