// internal/api/handler/web/dashboard.go
package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/app"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// ResultRow is one ranked symbol on the dashboard
type ResultRow struct {
	Rank int
	core.SymbolResult
}

// DashboardData holds data for the dashboard template
type DashboardData struct {
	Title        string
	Status       app.Status
	Scan         *core.ScanResult
	Morning      *core.MorningList
	Rows         []ResultRow
	Failed       []core.SymbolResult
	CountA       int
	CountB       int
	LastError    *core.ErrorInfo
	AllowTrigger bool
	Flash        string
	FlashError   bool
}

// Dashboard renders the ranked results of the latest scan
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := DashboardData{
		Title:        "Pre-market scan",
		AllowTrigger: h.allowTrigger,
	}

	if h.scans != nil {
		data.Status = h.scans.Status()
		if last := data.Status.LastRun; last != nil && last.Status == app.RunFailed {
			data.LastError = last.Error
		}
		if res, ok := h.scans.Latest(); ok {
			data.Scan = res
			data.Failed = res.Failed
			grades := res.GradeCounts()
			data.CountA, data.CountB = grades[core.GradeA], grades[core.GradeB]
			for i, sr := range res.Results {
				data.Rows = append(data.Rows, ResultRow{Rank: i + 1, SymbolResult: sr})
			}
		}
		if list, ok := h.scans.Morning(); ok {
			data.Morning = list
		}
	}

	q := r.URL.Query()
	switch {
	case q.Get("started") != "":
		data.Flash = "Scan started. Refresh to see results."
	case q.Get("morning") != "":
		data.Flash = "Morning check finished."
	case q.Get("error") != "":
		data.Flash = flashMessage(q.Get("error"))
		data.FlashError = true
	}

	h.render(w, http.StatusOK, "dashboard.html", data)
}

// RunScan starts a manual scan and redirects back to the dashboard
func (h *Handler) RunScan(w http.ResponseWriter, r *http.Request) {
	if !h.allowTrigger || h.scans == nil {
		http.Error(w, "manual scans are disabled", http.StatusForbidden)
		return
	}

	j, err := h.scans.Start(app.Request{Trigger: core.TriggerManual})
	target := "/?started=" + url.QueryEscape(j.ID)
	if err != nil {
		target = "/?error=" + url.QueryEscape(errorCode(err))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// RunMorning re-checks the latest picks and redirects back to the
// dashboard. The check runs within the request.
func (h *Handler) RunMorning(w http.ResponseWriter, r *http.Request) {
	if !h.allowTrigger || h.scans == nil {
		http.Error(w, "manual scans are disabled", http.StatusForbidden)
		return
	}

	target := "/?morning=done"
	if _, err := h.scans.RunMorning(r.Context(), core.TriggerManual); err != nil {
		target = "/?error=" + url.QueryEscape(errorCode(err))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func errorCode(err error) string {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr.Code
	}
	return "INTERNAL_ERROR"
}

func flashMessage(code string) string {
	switch code {
	case core.ErrScanInProgress.Code:
		return "A scan is already running."
	case core.ErrNoScan.Code:
		return "There is no scan to confirm yet."
	default:
		return "Could not run (" + code + ")."
	}
}
