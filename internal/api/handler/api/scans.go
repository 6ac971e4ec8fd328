// internal/api/handler/api/scans.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/api/job"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/api/response"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/app"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// ScanService defines what the scan handlers need from app.Scanner.
type ScanService interface {
	Latest() (*core.ScanResult, bool)
	History(limit int) []*core.ScanResult
	LastRun() *app.RunStatus
	Start(req app.Request) (job.Job, error)
	Jobs() *job.Store
	ParseDate(v string) (time.Time, error)
}

// ScansHandler handles scan API requests.
type ScansHandler struct {
	svc ScanService
}

// NewScansHandler creates a new scans handler.
func NewScansHandler(svc ScanService) *ScansHandler {
	return &ScansHandler{svc: svc}
}

// LatestView is the latest published scan plus the outcome of the most
// recent run, which may have failed after the scan was published.
type LatestView struct {
	Scan    *core.ScanResult `json:"scan"`
	LastRun *app.RunStatus   `json:"last_run,omitempty"`
	Stale   bool             `json:"stale"`
}

// Latest returns the most recent published scan. Query parameters
// min_grade (A, B or C) and limit narrow the ranked list.
func (h *ScansHandler) Latest(w http.ResponseWriter, r *http.Request) {
	res, ok := h.svc.Latest()
	if !ok {
		response.Fail(w, h.noScan())
		return
	}

	q := r.URL.Query()
	minGrade := core.Grade(strings.ToUpper(q.Get("min_grade")))
	if minGrade != "" && minGrade.Tier() == 0 {
		response.Fail(w, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("min_grade must be A, B or C")))
		return
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	view := LatestView{Scan: filterResults(res, minGrade, limit), LastRun: h.svc.LastRun()}
	view.Stale = view.LastRun != nil && view.LastRun.Status == app.RunFailed
	response.JSON(w, http.StatusOK, view)
}

// LatestSymbol returns the factor breakdown for one symbol of the latest
// scan.
func (h *ScansHandler) LatestSymbol(w http.ResponseWriter, r *http.Request) {
	res, ok := h.svc.Latest()
	if !ok {
		response.Fail(w, h.noScan())
		return
	}

	symbol := core.NormalizeSymbol(r.PathValue("symbol"))
	sr, ok := res.Find(symbol)
	if !ok {
		response.Fail(w, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("%s is not in scan %s", symbol, res.ID)))
		return
	}
	response.JSON(w, http.StatusOK, sr)
}

// ScanSummary is the compact form of a historical scan.
type ScanSummary struct {
	ID        string             `json:"id"`
	Date      string             `json:"date"`
	Trigger   core.Trigger       `json:"trigger"`
	ScannedAt time.Time          `json:"scanned_at"`
	Attempted int                `json:"attempted"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Qualified int                `json:"qualified"`
	Grades    map[core.Grade]int `json:"grades"`
	Top       []string           `json:"top,omitempty"`
}

// History lists recent scans, newest first.
func (h *ScansHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	scans := h.svc.History(limit)
	out := make([]ScanSummary, 0, len(scans))
	for _, s := range scans {
		out = append(out, summarize(s))
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"scans": out,
		"count": len(out),
	})
}

// TriggerRequest is the optional body of a manual scan.
type TriggerRequest struct {
	Date    string   `json:"date,omitempty"`
	Symbols []string `json:"symbols,omitempty"`
	ShowAll bool     `json:"show_all,omitempty"`
}

// Trigger starts an asynchronous scan and returns its job.
func (h *ScansHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var body TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		response.Fail(w, core.WrapError(core.ErrInvalidRequest, err))
		return
	}

	req := app.Request{Trigger: core.TriggerManual, ShowAll: body.ShowAll}
	if body.Date != "" {
		d, err := h.svc.ParseDate(body.Date)
		if err != nil {
			response.Fail(w, err)
			return
		}
		req.Date = d
	}
	for _, s := range body.Symbols {
		if !core.ValidSymbol(s) {
			response.Fail(w, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("invalid symbol %q", s)))
			return
		}
	}
	req.Symbols = core.DedupeSymbols(body.Symbols)

	j, err := h.svc.Start(req)
	if err != nil {
		response.Fail(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/scans/jobs/"+j.ID)
	response.JSON(w, http.StatusAccepted, j)
}

// Job returns an async scan job by ID.
func (h *ScansHandler) Job(w http.ResponseWriter, r *http.Request) {
	j, err := h.svc.Jobs().Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, j)
}

// Jobs lists known scan jobs, newest first.
func (h *ScansHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.svc.Jobs().List()
	response.JSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// noScan distinguishes "never scanned" from "last scan failed".
func (h *ScansHandler) noScan() error {
	if last := h.svc.LastRun(); last != nil && last.Status == app.RunFailed && last.Error != nil {
		return core.WrapError(core.ErrNoScan, fmt.Errorf("last scan failed: %s", last.Error.Code))
	}
	return core.ErrNoScan
}

func parseLimit(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("limit must be a non-negative integer"))
	}
	return n, nil
}

// filterResults returns a shallow copy of res with Results narrowed. The
// cached scan is never modified.
func filterResults(res *core.ScanResult, minGrade core.Grade, limit int) *core.ScanResult {
	if minGrade == "" && limit == 0 {
		return res
	}
	out := *res
	out.Results = make([]core.SymbolResult, 0, len(res.Results))
	for _, sr := range res.Results {
		if minGrade != "" && (sr.Score == nil || sr.Score.Grade.Tier() < minGrade.Tier()) {
			continue
		}
		out.Results = append(out.Results, sr)
		if limit > 0 && len(out.Results) >= limit {
			break
		}
	}
	return &out
}

func summarize(s *core.ScanResult) ScanSummary {
	sum := ScanSummary{
		ID:        s.ID,
		Date:      s.Date,
		Trigger:   s.Trigger,
		ScannedAt: s.ScannedAt,
		Attempted: s.Attempted,
		Succeeded: s.Succeeded,
		Failed:    s.FailedCount(),
		Qualified: s.Qualified,
		Grades:    s.GradeCounts(),
	}
	for _, sr := range s.Results {
		if len(sum.Top) >= 5 {
			break
		}
		sum.Top = append(sum.Top, sr.Symbol)
	}
	return sum
}
