// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihandler "github.com/shaiderdocker-droid/dayedge-scanner/internal/api/handler/api"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/api/handler/web"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/api/middleware"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/app"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/metrics"
)

// Server represents the HTTP server for the scanner
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	APIKey       string
	TemplatesDir string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MetricsPath  string
}

// Dependencies holds the services the routes are served from
type Dependencies struct {
	Scanner *app.Scanner
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Scanner == nil {
		return nil, errors.New("scanner is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 15 * time.Second
	}

	mux := http.NewServeMux()

	s := &Server{
		logger: logger,
		mux:    mux,
	}

	// Set up routes
	if err := s.setupRoutes(cfg, deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	var h http.Handler = mux
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	s.handler = metrics.LoggingMiddleware(logger)(h)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) error {
	// Web UI routes
	webHandler, err := web.NewHandler(cfg.TemplatesDir)
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}
	webHandler.SetScanProvider(deps.Scanner)
	webHandler.SetAllowTrigger(cfg.APIKey == "")

	s.mux.HandleFunc("GET /{$}", webHandler.Dashboard)
	s.mux.HandleFunc("GET /symbols/{symbol}", webHandler.Symbol)
	if cfg.APIKey == "" {
		s.mux.HandleFunc("POST /scan", webHandler.RunScan)
		s.mux.HandleFunc("POST /morning", webHandler.RunMorning)
	}

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	// API v1 routes
	auth := middleware.APIKeyAuth(cfg.APIKey)
	v1 := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, auth(h))
	}

	scans := apihandler.NewScansHandler(deps.Scanner)
	v1("GET /api/v1/scans/latest", scans.Latest)
	v1("GET /api/v1/scans/latest/{symbol}", scans.LatestSymbol)
	v1("GET /api/v1/scans/history", scans.History)
	v1("POST /api/v1/scans", scans.Trigger)
	v1("GET /api/v1/scans/jobs", scans.Jobs)
	v1("GET /api/v1/scans/jobs/{id}", scans.Job)

	morning := apihandler.NewMorningHandler(deps.Scanner)
	v1("GET /api/v1/morning", morning.Get)
	v1("POST /api/v1/morning", morning.Run)

	status := apihandler.NewStatusHandler(deps.Scanner)
	v1("GET /api/v1/status", status.Get)

	universe := apihandler.NewUniverseHandler(deps.Scanner)
	v1("GET /api/v1/universe", universe.List)
	v1("POST /api/v1/universe", universe.Add)
	v1("DELETE /api/v1/universe/{symbol}", universe.Remove)

	return nil
}

// Handler returns the root handler with logging and metrics applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
