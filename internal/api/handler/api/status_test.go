// internal/api/handler/api/status_test.go
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/app"
)

type fakeStatus struct {
	status app.Status
}

func (f fakeStatus) Status() app.Status { return f.status }

func TestStatusHandler_Get(t *testing.T) {
	handler := NewStatusHandler(fakeStatus{status: app.Status{
		Running:         true,
		HasResults:      true,
		LatestScanID:    "scan-1",
		UniverseSize:    12,
		NextTradingDate: "2025-03-10",
		LastRun:         &app.RunStatus{Status: app.RunSucceeded},
	}})

	w := httptest.NewRecorder()
	handler.Get(w, httptest.NewRequest("GET", "/api/v1/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data app.Status `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Running)
	assert.Equal(t, "scan-1", resp.Data.LatestScanID)
	assert.Equal(t, 12, resp.Data.UniverseSize)
	assert.Equal(t, "2025-03-10", resp.Data.NextTradingDate)
	require.NotNil(t, resp.Data.LastRun)
	assert.Equal(t, app.RunSucceeded, resp.Data.LastRun.Status)
}
