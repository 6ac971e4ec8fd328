// internal/api/handler/api/morning.go
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/api/response"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// MorningService defines what the morning handlers need from app.Scanner.
type MorningService interface {
	Morning() (*core.MorningList, bool)
	RunMorning(ctx context.Context, trigger core.Trigger) (*core.MorningList, error)
}

// MorningHandler serves the pre-market go-list.
type MorningHandler struct {
	svc MorningService
}

// NewMorningHandler creates a new morning handler.
func NewMorningHandler(svc MorningService) *MorningHandler {
	return &MorningHandler{svc: svc}
}

// Get returns the most recent morning list.
func (h *MorningHandler) Get(w http.ResponseWriter, r *http.Request) {
	list, ok := h.svc.Morning()
	if !ok {
		response.Fail(w, core.WrapError(core.ErrNoScan, errors.New("no morning list yet")))
		return
	}
	response.JSON(w, http.StatusOK, list)
}

// Run re-checks the latest scan's picks and returns the new list.
func (h *MorningHandler) Run(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.RunMorning(r.Context(), core.TriggerManual)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, list)
}
