// internal/api/middleware/auth_test.go
package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/api/response"
)

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		sent       string
		wantStatus int
	}{
		{"valid key", "secret-key", "secret-key", http.StatusOK},
		{"missing key", "secret-key", "", http.StatusUnauthorized},
		{"wrong key", "secret-key", "wrong-key", http.StatusUnauthorized},
		{"prefix of key", "secret-key", "secret", http.StatusUnauthorized},
		{"auth disabled", "", "", http.StatusOK},
		{"auth disabled ignores header", "", "anything", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/api/v1/status", nil)
			if tt.sent != "" {
				req.Header.Set(HeaderAPIKey, tt.sent)
			}
			w := httptest.NewRecorder()
			APIKeyAuth(tt.configured)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

func TestAPIKeyAuth_ErrorBody(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	})

	req := httptest.NewRequest("POST", "/api/v1/scans", nil)
	w := httptest.NewRecorder()
	APIKeyAuth("secret-key")(next).ServeHTTP(w, req)

	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
	assert.Contains(t, resp.Error.Cause, HeaderAPIKey)
}
