// internal/api/handler/web/symbol.go
package web

import (
	"net/http"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// SymbolData holds data for the symbol breakdown template
type SymbolData struct {
	Title  string
	Scan   *core.ScanResult
	Result core.SymbolResult
}

// Symbol renders the factor breakdown of one symbol in the latest scan
func (h *Handler) Symbol(w http.ResponseWriter, r *http.Request) {
	symbol := core.NormalizeSymbol(r.PathValue("symbol"))
	if h.scans == nil {
		http.NotFound(w, r)
		return
	}
	res, ok := h.scans.Latest()
	if !ok {
		http.NotFound(w, r)
		return
	}
	sr, ok := res.Find(symbol)
	if !ok {
		http.NotFound(w, r)
		return
	}

	h.render(w, http.StatusOK, "symbol.html", SymbolData{
		Title:  symbol,
		Scan:   res,
		Result: sr,
	})
}
