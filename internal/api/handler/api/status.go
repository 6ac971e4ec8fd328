// internal/api/handler/api/status.go
package api

import (
	"net/http"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/api/response"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/app"
)

// StatusProvider reports the scanner's service status.
type StatusProvider interface {
	Status() app.Status
}

// StatusHandler handles status API requests.
type StatusHandler struct {
	provider StatusProvider
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(p StatusProvider) *StatusHandler {
	return &StatusHandler{provider: p}
}

// Get returns running state, result availability and the last run.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.provider.Status())
}
