package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name          string
		store         Pinger
		expectedStore string
	}{
		{name: "memory store", store: nil, expectedStore: "memory"},
		{name: "redis reachable", store: stubPinger{}, expectedStore: "ok"},
		{name: "redis down", store: stubPinger{err: errors.New("connection refused")}, expectedStore: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.store, discardLogger())

			rr := httptest.NewRecorder()
			h.Health(rr, httptest.NewRequest("GET", "/health", nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			data := decodeBody(t, rr)["data"].(map[string]interface{})
			assert.Equal(t, "ok", data["status"])
			assert.Equal(t, tt.expectedStore, data["store"])
		})
	}
}

func TestResource(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthHandler(nil, discardLogger()).Resource(rr, httptest.NewRequest("GET", "/api/v1/resource", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Resource accessed successfully", decodeBody(t, rr)["message"])
}

func TestContact(t *testing.T) {
	h := NewFormsHandler(discardLogger())

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "valid submission",
			body:           `{"name":"Ana","email":"ana@example.com","message":"Olá!","betaTester":true}`,
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "invalid email",
			body:           `{"name":"Ana","email":"not-an-email","message":"Olá!"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "email failed on email",
		},
		{
			name:           "missing message",
			body:           `{"name":"Ana","email":"ana@example.com"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "message failed on required",
		},
		{
			name:           "message too long",
			body:           `{"name":"Ana","email":"ana@example.com","message":"` + strings.Repeat("a", 5001) + `"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "message failed on max",
		},
		{
			name:           "unknown field",
			body:           `{"name":"Ana","email":"ana@example.com","message":"hi","phone":"123"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid JSON body",
		},
		{
			name:           "wrong field type",
			body:           `{"name":"Ana","email":"ana@example.com","message":"hi","betaTester":"yes"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid JSON body",
		},
		{
			name:           "malformed JSON",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid JSON body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/contact", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			rr := httptest.NewRecorder()
			h.Contact(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedError != "" {
				assert.Contains(t, decodeBody(t, rr)["message"], tt.expectedError)
			}
		})
	}
}

func TestNewsletter(t *testing.T) {
	h := NewFormsHandler(discardLogger())

	t.Run("valid email", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Newsletter(rr, httptest.NewRequest("POST", "/api/v1/newsletter", strings.NewReader(`{"email":"leitor@example.com"}`)))

		assert.Equal(t, http.StatusAccepted, rr.Code)
		assert.Equal(t, "Subscription received", decodeBody(t, rr)["message"])
	})

	t.Run("missing email", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Newsletter(rr, httptest.NewRequest("POST", "/api/v1/newsletter", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeBody(t, rr)["message"], "email failed on required")
	})
}

func TestAdminLogin(t *testing.T) {
	tests := []struct {
		name           string
		configured     string
		body           string
		expectedStatus int
	}{
		{name: "correct password", configured: "s3cret", body: `{"password":"s3cret"}`, expectedStatus: http.StatusOK},
		{name: "wrong password", configured: "s3cret", body: `{"password":"guess"}`, expectedStatus: http.StatusUnauthorized},
		{name: "empty password", configured: "s3cret", body: `{"password":""}`, expectedStatus: http.StatusUnauthorized},
		{name: "malformed body", configured: "s3cret", body: `password=s3cret`, expectedStatus: http.StatusBadRequest},
		{name: "not configured", configured: "", body: `{"password":""}`, expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAdminHandler(tt.configured, discardLogger())

			rr := httptest.NewRecorder()
			h.Login(rr, httptest.NewRequest("POST", "/api/v1/admin/login", strings.NewReader(tt.body)))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestHealthLogsPingFailureToInjectedLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	h := NewHealthHandler(stubPinger{err: errors.New("connection refused")}, logger)

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, logs.String(), `"msg":"rate limit store ping failed"`)
	assert.Contains(t, logs.String(), "connection refused")
}

func TestContactHidesDecoderDetails(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := NewFormsHandler(logger)

	body := `{"name":"Ana","email":"ana@example.com","message":"hi","phone":"123"}`
	rr := httptest.NewRecorder()
	h.Contact(rr, httptest.NewRequest("POST", "/api/v1/contact", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid JSON body", decodeBody(t, rr)["message"])
	assert.NotContains(t, rr.Body.String(), "phone")
	assert.NotContains(t, rr.Body.String(), "json:")

	assert.Contains(t, logs.String(), `"msg":"request body rejected"`)
	assert.Contains(t, logs.String(), `unknown field`)
}
