// Package registry is the process-wide root of the mesh: it owns the
// namespace, channel, swarm, and pattern collections, runs the background
// adaptation monitor, and produces consistent snapshots for the control
// surface.
//
// The registry's RWMutex guards only its maps. It is never held across a
// call into a namespace, channel, or swarm; those synchronize themselves.
package registry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/cogmesh/channel"
	"github.com/c360/cogmesh/config"
	"github.com/c360/cogmesh/errors"
	"github.com/c360/cogmesh/message"
	"github.com/c360/cogmesh/metric"
	"github.com/c360/cogmesh/namespace"
	"github.com/c360/cogmesh/pattern"
	"github.com/c360/cogmesh/swarm"
)

// Adaptation modes for a namespace.
const (
	ModeManual = "manual"
	ModeAuto   = "auto"
)

// DefaultAdaptInterval is the monitor tick used when no interval is
// configured.
const DefaultAdaptInterval = 5 * time.Second

// agentStopTimeout bounds how long Shutdown waits for each swarm's agents.
const agentStopTimeout = 5 * time.Second

// Handler processes coordination messages for swarms started through the
// registry.
type Handler = swarm.Handler

// Registry tracks every entity in the mesh.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]*namespace.Namespace
	modes      map[string]string
	channels   map[string]*channel.Channel
	swarms     map[string]*swarm.Swarm

	patterns *pattern.Store

	interval        time.Duration
	logger          *slog.Logger
	metrics         *metric.Metrics
	metricsRegistry *metric.MetricsRegistry
	agentHandler    Handler

	// Lifetime counters not derivable from entity stats
	patternsDetected atomic.Uint64

	lifecycleMu sync.Mutex
	started     bool
	stopped     bool
	cancel      context.CancelFunc
	done        chan struct{}
}

// Option is a functional option for configuring Registry construction.
type Option func(*Registry)

// WithLogger sets the registry's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics enables Prometheus instrumentation; it is passed down to every
// entity the registry creates.
func WithMetrics(m *metric.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithMetricsRegistry wires the full metrics registry: entities use the core
// instruments, and each swarm's agent pool registers its own alongside them.
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(r *Registry) {
		if registry != nil {
			r.metricsRegistry = registry
			r.metrics = registry.CoreMetrics()
		}
	}
}

// WithAdaptInterval sets the background monitor tick.
func WithAdaptInterval(interval time.Duration) Option {
	return func(r *Registry) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithAgentHandler sets the handler swarm agents started via StartSwarm run
// for each coordination message.
func WithAgentHandler(h Handler) Option {
	return func(r *Registry) {
		if h != nil {
			r.agentHandler = h
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		namespaces: make(map[string]*namespace.Namespace),
		modes:      make(map[string]string),
		channels:   make(map[string]*channel.Channel),
		swarms:     make(map[string]*swarm.Swarm),
		interval:   DefaultAdaptInterval,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.patterns = pattern.NewStore(pattern.WithMetrics(r.metrics))
	if r.agentHandler == nil {
		logger := r.logger
		r.agentHandler = func(_ context.Context, msg *message.Message) error {
			logger.Debug("coordination message handled",
				"kind", msg.Kind().String(),
				"source", msg.SourceDomain(),
				"swarm", msg.SwarmID())
			return nil
		}
	}
	return r
}

// Seed creates the namespaces, channels, and swarms the configuration ships
// with. Swarm members are registered but agents are not started; the daemon
// starts them once it has a context.
func (r *Registry) Seed(cfg *config.Config) error {
	if cfg == nil {
		return errors.WrapInvalid(errors.ErrInvalidArgument, "Registry", "Seed", "config validation")
	}

	for _, ns := range cfg.Namespaces {
		if _, err := r.CreateNamespace(ns.Domain, ns.RootPath); err != nil {
			return err
		}
		if ns.Mode != "" {
			if err := r.SetAdaptMode(ns.Domain, ns.Mode); err != nil {
				return err
			}
		}
	}
	for _, ch := range cfg.Channels {
		if _, err := r.BindChannel(ch.Source, ch.Target, ch.Bandwidth); err != nil {
			return err
		}
	}
	for _, sw := range cfg.Swarms {
		created, err := r.CreateSwarm(sw.ID, sw.Domain, sw.CoordCapacity)
		if err != nil {
			return err
		}
		if err := addAgentMembers(created, sw.Agents); err != nil {
			return err
		}
	}
	return nil
}

// Start launches the background adaptation monitor. Every tick it runs an
// Adapt pass over the namespaces in auto mode.
func (r *Registry) Start(ctx context.Context) error {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if r.started {
		return errors.WrapExists(errors.ErrAlreadyStarted, "Registry", "Start", "monitor startup")
	}
	if r.stopped {
		return errors.WrapInvalid(errors.ErrShuttingDown, "Registry", "Start", "monitor startup")
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.monitor(ctx)

	r.started = true
	r.logger.Info("adaptation monitor started", "interval", r.interval)
	return nil
}

// Shutdown stops the adaptation monitor and every swarm's agent pool.
// Idempotent.
func (r *Registry) Shutdown() error {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if r.stopped {
		return nil
	}
	r.stopped = true

	if r.started {
		r.cancel()
		<-r.done
	}

	for _, sw := range r.listSwarms() {
		if err := sw.StopAgents(agentStopTimeout); err != nil && !errors.IsInvalid(err) {
			r.logger.Warn("swarm agents did not stop cleanly", "swarm", sw.ID(), "error", err)
		}
	}
	r.logger.Info("registry shut down")
	return nil
}

// monitor drives periodic adaptation until the context is cancelled.
func (r *Registry) monitor(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.adaptTick()
		}
	}
}

// adaptTick runs one Adapt pass over the auto-mode namespaces.
func (r *Registry) adaptTick() {
	r.mu.RLock()
	auto := make([]*namespace.Namespace, 0, len(r.namespaces))
	for domain, ns := range r.namespaces {
		if r.modes[domain] == ModeAuto {
			auto = append(auto, ns)
		}
	}
	r.mu.RUnlock()

	for _, ns := range auto {
		report := ns.Adapt()
		if report.Adapted {
			r.logger.Info("namespace adapted",
				"domain", report.Domain,
				"avg_load", report.AvgLoad,
				"channels_grown", report.Adaptations)
		}
	}
}

// listSwarms returns the swarms under a read lock.
func (r *Registry) listSwarms() []*swarm.Swarm {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*swarm.Swarm, 0, len(r.swarms))
	for _, sw := range r.swarms {
		out = append(out, sw)
	}
	return out
}
