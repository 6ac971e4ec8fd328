// internal/api/handler/api/universe.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/api/response"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// UniverseService defines the interface needed from app.Scanner.
type UniverseService interface {
	Universe() []string
	AddSymbols(symbols ...string) ([]string, error)
	RemoveSymbol(symbol string) bool
}

// UniverseHandler handles universe API requests.
type UniverseHandler struct {
	svc UniverseService
}

// NewUniverseHandler creates a new universe handler.
func NewUniverseHandler(svc UniverseService) *UniverseHandler {
	return &UniverseHandler{svc: svc}
}

// AddRequest is the request body for adding symbols. Symbol and Symbols
// may be combined.
type AddRequest struct {
	Symbol  string   `json:"symbol,omitempty"`
	Symbols []string `json:"symbols,omitempty"`
}

// List returns all symbols in the universe.
func (h *UniverseHandler) List(w http.ResponseWriter, r *http.Request) {
	symbols := h.svc.Universe()
	response.JSON(w, http.StatusOK, map[string]any{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// Add adds symbols to the universe.
func (h *UniverseHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, core.WrapError(core.ErrInvalidRequest, err))
		return
	}

	symbols := req.Symbols
	if req.Symbol != "" {
		symbols = append(symbols, req.Symbol)
	}
	if len(symbols) == 0 {
		response.Fail(w, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("symbol or symbols is required")))
		return
	}

	added, err := h.svc.AddSymbols(symbols...)
	if err != nil {
		response.Fail(w, err)
		return
	}

	status := http.StatusCreated
	if len(added) == 0 {
		status = http.StatusOK
	}
	response.JSON(w, status, map[string]any{
		"added": added,
		"count": len(h.svc.Universe()),
	})
}

// Remove removes a symbol from the universe.
func (h *UniverseHandler) Remove(w http.ResponseWriter, r *http.Request) {
	symbol := core.NormalizeSymbol(r.PathValue("symbol"))
	if !h.svc.RemoveSymbol(symbol) {
		response.Fail(w, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("%s is not in the universe", symbol)))
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"symbol":  symbol,
		"removed": true,
	})
}
