// Package server exposes the SOC assistant HTTP API: alert ingestion, the
// assistant endpoints, phishing scanning, CVE lookup, and telemetry.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thirdspace/socrelay/cve"
	"github.com/thirdspace/socrelay/llm"
	"github.com/thirdspace/socrelay/reputation"
	"github.com/thirdspace/socrelay/storage"
	"github.com/thirdspace/socrelay/triage"
)

// Ingester runs the triage pipeline for an inbound alert.
type Ingester interface {
	Ingest(ctx context.Context, alert triage.IngestedAlert) (*triage.Result, error)
}

// Completer abstracts the completion gateway.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// URLScanner checks URLs against the reputation provider.
type URLScanner interface {
	ScanURLs(ctx context.Context, urls []string) []reputation.Finding
}

// AlertStore persists alert records and scan logs.
type AlertStore interface {
	CreateAlert(ctx context.Context, a *storage.AlertRecord) (storage.EntityID, error)
	GetAlert(ctx context.Context, id storage.EntityID) (*storage.AlertRecord, error)
	ListAlerts(ctx context.Context) ([]*storage.AlertRecord, error)
	CreateScanLog(ctx context.Context, l *storage.ScanLog) (storage.EntityID, error)
	ListScanLogs(ctx context.Context) ([]*storage.ScanLog, error)
}

// CVELookup resolves CVE identifiers to enriched records.
type CVELookup interface {
	Lookup(ctx context.Context, id string) (*cve.Info, error)
}

// Server wires the HTTP surface to the backing services.
type Server struct {
	ingester  Ingester
	completer Completer
	scanner   URLScanner
	store     AlertStore
	cves      CVELookup

	registry    *prometheus.Registry
	metrics     *Metrics
	logger      *slog.Logger
	temperature float64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTemperature sets the sampling temperature used by assistant routes
// that do not pin their own.
func WithTemperature(t float64) Option {
	return func(s *Server) {
		s.temperature = t
	}
}

// New creates a Server over the given services.
func New(ingester Ingester, completer Completer, scanner URLScanner, store AlertStore, cves CVELookup, opts ...Option) *Server {
	registry := prometheus.NewRegistry()
	s := &Server{
		ingester:    ingester,
		completer:   completer,
		scanner:     scanner,
		store:       store,
		cves:        cves,
		registry:    registry,
		metrics:     NewMetrics(registry),
		logger:      slog.Default(),
		temperature: defaultTemperature,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the full HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ping", s.handlePing)
	mux.HandleFunc("/api/alerts/ingest", s.handleIngest)
	mux.HandleFunc("/api/alerts", s.handleAlerts)
	mux.HandleFunc("/api/alerts/", s.handleAlertByID)
	mux.HandleFunc("/api/triage", s.assistHandler(assistTriage))
	mux.HandleFunc("/api/kb", s.assistHandler(assistKB))
	mux.HandleFunc("/api/threat-intel", s.assistHandler(assistThreatIntel))
	mux.HandleFunc("/api/ticket", s.assistHandler(assistTicket))
	mux.HandleFunc("/api/phishing-detect", s.assistHandler(assistPhishing))
	mux.HandleFunc("/api/remediation", s.assistHandler(assistRemediation))
	mux.HandleFunc("/api/phishing", s.handlePhishingScan)
	mux.HandleFunc("/api/cve-info", s.handleCVEInfo)
	mux.HandleFunc("/api/metrics/phishing-log", s.handlePhishingLog)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return withCORS(s.withObservability(mux))
}

// Run serves HTTP on addr until ctx is cancelled, then drains connections
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
