// Package gateway serves the mesh's control surface over HTTP: textual
// listings of domains, channels, swarms, and statistics, a ctl endpoint for
// control commands, Prometheus metrics, health, and a websocket monitor
// stream.
package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/c360/cogmesh/control"
	"github.com/c360/cogmesh/errors"
	"github.com/c360/cogmesh/health"
	"github.com/c360/cogmesh/metric"
	"github.com/c360/cogmesh/registry"
)

// DefaultStreamInterval is how often the websocket monitor pushes a
// snapshot.
const DefaultStreamInterval = time.Second

// maxCommandBytes bounds how much of a ctl request body is read.
const maxCommandBytes = 4096

// Server is the HTTP control surface over one registry.
type Server struct {
	addr       string
	registry   *registry.Registry
	dispatcher *control.Dispatcher
	metrics    *metric.MetricsRegistry
	monitor    *health.Monitor
	logger     *slog.Logger
	interval   time.Duration

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// Option is a functional option for configuring Server construction.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRegistry exposes the given registry on /metrics.
func WithMetricsRegistry(m *metric.MetricsRegistry) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHealthMonitor backs /healthz with the given monitor.
func WithHealthMonitor(m *health.Monitor) Option {
	return func(s *Server) {
		s.monitor = m
	}
}

// WithStreamInterval sets the websocket monitor push interval.
func WithStreamInterval(interval time.Duration) Option {
	return func(s *Server) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// New creates a gateway server for the registry.
func New(addr string, reg *registry.Registry, dispatcher *control.Dispatcher, opts ...Option) (*Server, error) {
	if reg == nil || dispatcher == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidArgument, "Server", "New", "dependency validation")
	}

	s := &Server{
		addr:       addr,
		registry:   reg,
		dispatcher: dispatcher,
		logger:     slog.Default(),
		interval:   DefaultStreamInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.monitor == nil {
		s.monitor = health.NewMonitor()
		s.monitor.UpdateHealthy("gateway", "serving")
	}
	return s, nil
}

// Handler builds the route mux. Exposed so tests can drive the surface
// without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleListing(control.RenderMonitor))
	mux.HandleFunc("GET /domains", s.handleListing(control.RenderDomains))
	mux.HandleFunc("GET /channels", s.handleListing(control.RenderChannels))
	mux.HandleFunc("GET /swarms", s.handleListing(control.RenderSwarms))
	mux.HandleFunc("GET /patterns", s.handleListing(control.RenderPatterns))
	mux.HandleFunc("GET /stats", s.handleListing(control.RenderStats))
	mux.HandleFunc("POST /ctl", s.handleCtl)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /monitor", s.handleMonitor)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

// Start begins listening and serving in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.WrapExists(errors.ErrAlreadyStarted, "Server", "Start", "listener startup")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.WrapInternal(err, "Server", "Start", "listener startup")
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if serveErr := s.server.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("gateway serve failed", "error", serveErr)
		}
	}()

	s.logger.Info("gateway listening", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound listen address, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.WrapInternal(err, "Server", "Stop", "listener shutdown")
	}
	return nil
}

// handleListing renders one textual listing from a fresh snapshot.
func (s *Server) handleListing(render func(registry.Snapshot) string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, render(s.registry.Snapshot()))
	}
}

// handleCtl executes one control command from the request body.
func (s *Server) handleCtl(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBytes))
	if err != nil {
		http.Error(w, "cannot read command", http.StatusBadRequest)
		return
	}

	response, err := s.dispatcher.Execute(r.Context(), string(body))
	if err != nil {
		http.Error(w, err.Error(), statusFromError(err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, response)
}

// handleHealthz reports aggregate health as JSON, 503 when impaired.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	status := s.monitor.Aggregate("cogmesh")

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("healthz encode failed", "error", err)
	}
}

// statusFromError maps the error taxonomy onto HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsExists(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
