// Package namespace aggregates the channels bound to a single cognitive
// domain and drives their adaptation as a group.
//
// A namespace never owns its channels: every channel is shared with the
// namespace at its other endpoint, so adaptation here is a cascade of
// per-channel AdaptCapacity calls, each serialized by the channel's own
// lock.
package namespace

import (
	"math"
	"sync"
	"time"

	"github.com/c360/cogmesh/channel"
	"github.com/c360/cogmesh/errors"
	"github.com/c360/cogmesh/metric"
	"github.com/c360/cogmesh/pkg/timestamp"
)

// highLoadAverage is the average per-channel load above which the namespace
// cascades adaptation to its channels. Strict: an average of exactly 100
// does not trigger.
const highLoadAverage = 100.0

// Namespace is a named cognitive domain with an ordered set of bound
// channels. The mutex serializes the whole aggregate-then-adapt pass so a
// timer-driven Adapt and a manual one cannot interleave.
type Namespace struct {
	domain   string
	rootPath string

	mu            sync.Mutex
	channels      []*channel.Channel
	bound         map[string]struct{}
	cognitiveLoad uint64
	lastAdaptedAt int64 // Unix milliseconds

	clock   func() time.Time
	metrics *metric.Metrics
}

// Option is a functional option for configuring Namespace construction.
type Option func(*Namespace)

// WithClock overrides the time source. Test seam.
func WithClock(clock func() time.Time) Option {
	return func(n *Namespace) {
		n.clock = clock
	}
}

// WithMetrics enables Prometheus instrumentation for this namespace.
func WithMetrics(m *metric.Metrics) Option {
	return func(n *Namespace) {
		n.metrics = m
	}
}

// New creates a namespace for the given domain rooted at rootPath.
func New(domain, rootPath string, opts ...Option) (*Namespace, error) {
	if domain == "" {
		return nil, errors.WrapInvalid(errors.ErrEmptyDomain, "Namespace", "New", "domain validation")
	}

	n := &Namespace{
		domain:   domain,
		rootPath: rootPath,
		bound:    make(map[string]struct{}),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// BindChannel attaches a channel to this namespace. Binding the same channel
// twice is a no-op; bind order is preserved for listing.
func (n *Namespace) BindChannel(ch *channel.Channel) error {
	if ch == nil {
		return errors.WrapInvalid(errors.ErrNilChannel, "Namespace", "BindChannel", "channel validation")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.bound[ch.ID()]; ok {
		return nil
	}
	n.bound[ch.ID()] = struct{}{}
	n.channels = append(n.channels, ch)
	return nil
}

// AdaptReport describes one aggregate-then-adapt pass.
type AdaptReport struct {
	Domain        string
	AvgLoad       float64
	CognitiveLoad uint64
	Adapted       bool // the cascade ran, regardless of per-channel outcomes
	Adaptations   int  // channels whose capacity actually grew
}

// measureLocked recomputes the average channel load and caches its floor as
// the namespace's cognitive load. Caller holds n.mu.
func (n *Namespace) measureLocked() float64 {
	var avg float64
	if len(n.channels) > 0 {
		var total uint64
		for _, ch := range n.channels {
			total += ch.Load()
		}
		avg = float64(total) / float64(len(n.channels))
	}
	n.cognitiveLoad = uint64(math.Floor(avg))
	return avg
}

// MeasureLoad recomputes and returns the namespace's cognitive load without
// adapting anything.
func (n *Namespace) MeasureLoad() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.measureLocked()
	return n.cognitiveLoad
}

// Adapt recomputes the namespace's cognitive load as the average load of its
// bound channels and, when that average strictly exceeds the high-load
// threshold, cascades a best-effort capacity adaptation to every channel.
// Safe to run on a timer; a namespace with no channels reports zero load.
func (n *Namespace) Adapt() AdaptReport {
	n.mu.Lock()

	report := AdaptReport{Domain: n.domain}
	report.AvgLoad = n.measureLocked()
	report.CognitiveLoad = n.cognitiveLoad

	if report.AvgLoad > highLoadAverage {
		report.Adapted = true
		for _, ch := range n.channels {
			if ch.AdaptCapacity() {
				report.Adaptations++
			}
		}
		n.lastAdaptedAt = timestamp.ToUnixMs(n.clock())
	}
	n.mu.Unlock()

	if n.metrics != nil {
		n.metrics.RecordNamespaceLoad(n.domain, report.CognitiveLoad)
		if report.Adapted {
			n.metrics.RecordAdaptation("namespace")
		}
	}
	return report
}

// Domain returns the namespace's domain name.
func (n *Namespace) Domain() string { return n.domain }

// RootPath returns the namespace's mount root.
func (n *Namespace) RootPath() string { return n.rootPath }

// Channels returns the bound channels in bind order.
func (n *Namespace) Channels() []*channel.Channel {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*channel.Channel, len(n.channels))
	copy(out, n.channels)
	return out
}

// ChannelCount returns the number of bound channels.
func (n *Namespace) ChannelCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.channels)
}

// CognitiveLoad returns the load computed by the most recent Adapt pass.
func (n *Namespace) CognitiveLoad() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cognitiveLoad
}

// LastAdaptedAt returns the time of the last adaptation cascade, zero time
// when the namespace has never cascaded.
func (n *Namespace) LastAdaptedAt() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return timestamp.ToTime(n.lastAdaptedAt)
}
