// Package swarm manages agent swarms coordinating over a dedicated channel.
//
// A swarm belongs to one domain and owns a coordination channel whose far
// endpoint is the shared "swarm-coordination" rendezvous. Coherence is a
// derived, advisory health signal: it is recomputed on demand from the
// coordination channel's load and the member count, never stored as
// authoritative state.
package swarm

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/c360/cogmesh/channel"
	"github.com/c360/cogmesh/errors"
	"github.com/c360/cogmesh/message"
	"github.com/c360/cogmesh/metric"
	"github.com/c360/cogmesh/pkg/timestamp"
	"github.com/c360/cogmesh/pkg/worker"
)

// CoordinationDomain is the rendezvous endpoint shared by every swarm's
// coordination channel.
const CoordinationDomain = "swarm-coordination"

// DefaultCoordinationCapacity is the initial capacity of a coordination
// channel when the caller does not choose one.
const DefaultCoordinationCapacity = 1000

// Handler processes one coordination message on behalf of a swarm agent.
type Handler func(context.Context, *message.Message) error

// Swarm is a named group of agents attached to a domain. The mutex covers
// membership; the coordination channel synchronizes itself.
type Swarm struct {
	id        string
	domain    string
	coord     *channel.Channel
	createdAt int64 // Unix milliseconds

	mu      sync.Mutex
	members []string
	present map[string]struct{}
	pool    *worker.Pool[*message.Message]

	metrics         *metric.Metrics
	metricsRegistry *metric.MetricsRegistry
}

// Option is a functional option for configuring Swarm construction.
type Option func(*Swarm)

// WithMetrics enables Prometheus instrumentation for this swarm.
func WithMetrics(m *metric.Metrics) Option {
	return func(s *Swarm) {
		s.metrics = m
	}
}

// WithMetricsRegistry lets the swarm's agent pool register its own
// instruments alongside the core metrics.
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(s *Swarm) {
		s.metricsRegistry = registry
	}
}

// New creates a swarm owned by domain, coordinating over coord.
func New(id, domain string, coord *channel.Channel, opts ...Option) (*Swarm, error) {
	if id == "" || domain == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidArgument, "Swarm", "New", "identity validation")
	}
	if coord == nil {
		return nil, errors.WrapInvalid(errors.ErrNilChannel, "Swarm", "New", "coordination channel validation")
	}

	s := &Swarm{
		id:        id,
		domain:    domain,
		coord:     coord,
		createdAt: timestamp.Now(),
		present:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddMember registers an agent handle with the swarm.
func (s *Swarm) AddMember(handle string) error {
	if handle == "" {
		return errors.WrapInvalid(errors.ErrInvalidArgument, "Swarm", "AddMember", "handle validation")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.present[handle]; ok {
		return errors.WrapExists(errors.ErrDuplicateMember, "Swarm", "AddMember", "member registration")
	}
	s.present[handle] = struct{}{}
	s.members = append(s.members, handle)
	return nil
}

// Members returns the member handles in registration order.
func (s *Swarm) Members() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.members))
	copy(out, s.members)
	return out
}

// MemberCount returns the number of registered members.
func (s *Swarm) MemberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

// Coherence derives the swarm's coordination health in [0, 1]. A swarm with
// no members has nothing to cohere and scores zero. Otherwise a lightly
// loaded coordination channel and a small membership score high; load at or
// past capacity drives the score to zero regardless of size.
func (s *Swarm) Coherence() float64 {
	count := s.MemberCount()
	if count == 0 {
		return 0.0
	}

	capacity := s.coord.Capacity()
	if capacity == 0 {
		return 0.0
	}
	loadFactor := 1.0 - float64(s.coord.Load())/float64(capacity)
	if loadFactor < 0 {
		loadFactor = 0
	}
	sizeFactor := 1.0 / (1.0 + float64(count)/10.0)

	coherence := loadFactor * sizeFactor
	if s.metrics != nil {
		s.metrics.RecordSwarmCoherence(s.id, coherence)
	}
	return coherence
}

// StartAgents launches a pool of n agents that poll the coordination channel
// and pass each message to handler. A swarm hosts at most one pool.
func (s *Swarm) StartAgents(ctx context.Context, n int, handler Handler) error {
	if handler == nil {
		return errors.WrapInvalid(errors.ErrInvalidArgument, "Swarm", "StartAgents", "handler validation")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pool != nil {
		return errors.WrapExists(errors.ErrAlreadyStarted, "Swarm", "StartAgents", "agent pool startup")
	}

	var poolOpts []worker.Option[*message.Message]
	if s.metricsRegistry != nil {
		poolOpts = append(poolOpts,
			worker.WithMetricsRegistry[*message.Message](s.metricsRegistry, metricPrefix(s.id)))
	}
	pool := worker.NewPool(n, s.coord.Receive, func(ctx context.Context, msg *message.Message) error {
		return handler(ctx, msg)
	}, poolOpts...)
	if err := pool.Start(ctx); err != nil {
		return errors.WrapInternal(err, "Swarm", "StartAgents", "agent pool startup")
	}
	s.pool = pool
	return nil
}

// StopAgents stops the agent pool. A swarm with no running pool reports
// NotStarted.
func (s *Swarm) StopAgents(timeout time.Duration) error {
	s.mu.Lock()
	pool := s.pool
	s.pool = nil
	s.mu.Unlock()

	if pool == nil {
		return errors.WrapInvalid(errors.ErrNotStarted, "Swarm", "StopAgents", "agent pool shutdown")
	}
	if err := pool.Stop(timeout); err != nil {
		return errors.WrapInternal(err, "Swarm", "StopAgents", "agent pool shutdown")
	}
	return nil
}

// AgentStats returns the agent pool's statistics, zero-valued when no pool
// is running.
func (s *Swarm) AgentStats() worker.PoolStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return worker.PoolStats{}
	}
	return s.pool.Stats()
}

// metricPrefix derives a Prometheus-safe instrument prefix from a swarm id.
func metricPrefix(id string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
	return "swarm_" + safe
}

// ID returns the swarm identifier.
func (s *Swarm) ID() string { return s.id }

// Domain returns the owning domain name.
func (s *Swarm) Domain() string { return s.domain }

// Coordination returns the swarm's coordination channel.
func (s *Swarm) Coordination() *channel.Channel { return s.coord }

// CreatedAt returns the swarm's creation time.
func (s *Swarm) CreatedAt() time.Time { return timestamp.ToTime(s.createdAt) }
