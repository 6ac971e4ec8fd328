// internal/api/handler/web/handler.go
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/analysis"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/api/job"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/app"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

//go:embed templates/*
var templateFS embed.FS

// pages lists the page templates, each rendered inside layout.html.
var pages = []string{"dashboard.html", "symbol.html"}

// ScanProvider provides scan results and manual triggering
type ScanProvider interface {
	Latest() (*core.ScanResult, bool)
	Status() app.Status
	Start(req app.Request) (job.Job, error)
	Morning() (*core.MorningList, bool)
	RunMorning(ctx context.Context, trigger core.Trigger) (*core.MorningList, error)
}

// Handler provides web UI handlers with template rendering
type Handler struct {
	// pageTemplates holds separate template instances for each page
	// Each instance contains layout.html + the specific page template
	pageTemplates map[string]*template.Template
	scans         ScanProvider
	allowTrigger  bool
}

// NewHandler creates a new web handler with templates loaded from the given directory.
// If templatesDir is empty, it falls back to embedded templates.
func NewHandler(templatesDir string) (*Handler, error) {
	if templatesDir == "" {
		return NewHandlerWithFS(TemplateFS())
	}
	pageTemplates := make(map[string]*template.Template)

	for _, page := range pages {
		layoutPath := filepath.Join(templatesDir, "layout.html")
		pagePath := filepath.Join(templatesDir, page)
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFiles(layoutPath, pagePath)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}

	return &Handler{pageTemplates: pageTemplates}, nil
}

// NewHandlerWithFS creates a new web handler using a custom filesystem.
// This is useful for testing or custom template sources.
func NewHandlerWithFS(fsys fs.FS) (*Handler, error) {
	pageTemplates := make(map[string]*template.Template)

	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s from fs: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}

	return &Handler{pageTemplates: pageTemplates}, nil
}

// SetScanProvider sets the scan data provider
func (h *Handler) SetScanProvider(p ScanProvider) {
	h.scans = p
}

// SetAllowTrigger enables the run-now form. The form posts without an API
// key, so it is only offered when the API is unauthenticated.
func (h *Handler) SetAllowTrigger(allow bool) {
	h.allowTrigger = allow
}

// render executes the specified page template with the given data
func (h *Handler) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := h.pageTemplates[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// TemplateFS returns the embedded template filesystem for external use.
func TemplateFS() fs.FS {
	subFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		// This should never happen with valid embed directive
		return templateFS
	}
	return subFS
}

var funcs = template.FuncMap{
	"pct": func(v float64) string {
		return fmt.Sprintf("%+.2f%%", v)
	},
	"ratio": func(v float64) string {
		return fmt.Sprintf("%.2fx", v)
	},
	"price": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	"check": func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	},
	"gradeClass": func(g core.Grade) string {
		return "grade-" + strings.ToLower(string(g))
	},
	"maxTotal": func() int {
		return analysis.MaxTotal
	},
}
