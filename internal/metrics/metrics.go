package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	scansTotal      *prometheus.CounterVec
	scanDuration    prometheus.Histogram
	symbolsScored   *prometheus.CounterVec
	symbolFailures  *prometheus.CounterVec
	lastSuccess     prometheus.Gauge
	scanRunning     prometheus.Gauge
	notifications   *prometheus.CounterVec
	universeSymbols prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dayedge_scans_total",
			Help: "Total number of scans by trigger and outcome",
		},
		[]string{"trigger", "status"},
	)
	r.scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dayedge_scan_duration_seconds",
			Help:    "Scan duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
	r.symbolsScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dayedge_symbols_scored_total",
			Help: "Total number of symbols scored by grade",
		},
		[]string{"grade"},
	)
	r.symbolFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dayedge_symbol_failures_total",
			Help: "Total number of per-symbol failures by error code",
		},
		[]string{"code"},
	)
	r.lastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dayedge_last_scan_success_timestamp",
			Help: "Unix time of the last successful scan",
		},
	)
	r.scanRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dayedge_scan_running",
			Help: "1 while a scan is in progress",
		},
	)
	r.notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dayedge_notifications_total",
			Help: "Total number of scan notifications by notifier and status",
		},
		[]string{"notifier", "status"},
	)
	r.universeSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dayedge_universe_symbols",
			Help: "Number of symbols in the scan universe",
		},
	)

	reg.MustRegister(r.scansTotal)
	reg.MustRegister(r.scanDuration)
	reg.MustRegister(r.symbolsScored)
	reg.MustRegister(r.symbolFailures)
	reg.MustRegister(r.lastSuccess)
	reg.MustRegister(r.scanRunning)
	reg.MustRegister(r.notifications)
	reg.MustRegister(r.universeSymbols)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordScan records a finished scan run.
func (r *Registry) RecordScan(trigger, status string, duration float64) {
	r.scansTotal.WithLabelValues(trigger, status).Inc()
	r.scanDuration.Observe(duration)
}

// RecordScanResult records the per-symbol outcomes of a successful scan.
func (r *Registry) RecordScanResult(res *core.ScanResult) {
	if res == nil {
		return
	}
	for _, sr := range res.Results {
		if sr.Score != nil {
			r.symbolsScored.WithLabelValues(string(sr.Score.Grade)).Inc()
		}
	}
	for _, sr := range res.Failed {
		code := core.ErrDataUnavailable.Code
		if sr.Error != nil {
			code = sr.Error.Code
		}
		r.symbolFailures.WithLabelValues(code).Inc()
	}
	r.lastSuccess.Set(float64(res.ScannedAt.Unix()))
}

// SetScanRunning flags whether a scan is in progress.
func (r *Registry) SetScanRunning(running bool) {
	if running {
		r.scanRunning.Set(1)
		return
	}
	r.scanRunning.Set(0)
}

// RecordNotification records a notification delivery attempt.
func (r *Registry) RecordNotification(notifier, status string) {
	r.notifications.WithLabelValues(notifier, status).Inc()
}

// SetUniverseSize sets the universe size.
func (r *Registry) SetUniverseSize(size int) {
	r.universeSymbols.Set(float64(size))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
