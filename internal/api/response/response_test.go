// internal/api/response/response_test.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

func TestJSON_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusAccepted, map[string]string{"job_id": "j1"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		Data map[string]string `json:"data"`
		Meta Meta              `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "j1", resp.Data["job_id"])
	assert.False(t, resp.Meta.Timestamp.IsZero())
}

func TestDetailFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorDetail
	}{
		{
			name: "coded",
			err:  core.ErrNoScan,
			want: ErrorDetail{Code: "NO_SCAN", Message: core.ErrNoScan.Message},
		},
		{
			name: "coded with cause",
			err:  core.WrapError(core.ErrInvalidRequest, errors.New("bad symbol")),
			want: ErrorDetail{Code: "INVALID_REQUEST", Message: core.ErrInvalidRequest.Message, Cause: "bad symbol"},
		},
		{
			name: "plain error is hidden",
			err:  errors.New("boom"),
			want: ErrorDetail{Code: "INTERNAL_ERROR", Message: "an internal error occurred"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetailFor(tt.err))
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrScanInProgress, http.StatusConflict},
		{core.WrapError(core.ErrNoScan, nil), http.StatusNotFound},
		{core.ErrJobNotFound, http.StatusNotFound},
		{core.ErrSymbolNotFound, http.StatusNotFound},
		{core.ErrInvalidRequest, http.StatusBadRequest},
		{core.ErrUnauthorized, http.StatusUnauthorized},
		{core.ErrProviderUnreachable, http.StatusBadGateway},
		{core.ErrStorageFailed, http.StatusServiceUnavailable},
		{core.ErrConfigInvalid, http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), "%v", tt.err)
	}
}

func TestFail(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(w, core.WrapError(core.ErrScanInProgress, errors.New("job j1 running")))

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SCAN_IN_PROGRESS", resp.Error.Code)
	assert.Equal(t, "job j1 running", resp.Error.Cause)
}
