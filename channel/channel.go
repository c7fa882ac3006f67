// Package channel implements the adaptive, concurrency-safe FIFO transport
// between two cognitive namespaces.
//
// A channel accepts backlog rather than dropping: a send past nominal
// capacity first attempts a capacity adaptation, and when adaptation
// declines the message is queued anyway with a distinct status so callers
// can apply their own backpressure policy. No message is ever silently
// discarded.
package channel

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/cogmesh/errors"
	"github.com/c360/cogmesh/message"
	"github.com/c360/cogmesh/metric"
	"github.com/c360/cogmesh/pkg/ring"
	"github.com/c360/cogmesh/pkg/timestamp"
)

const (
	// defaultAdaptationRate is the relative capacity growth per adaptation.
	defaultAdaptationRate = 0.10
	// highLoadThreshold is the load ratio above which capacity adapts.
	// Hysteresis: sitting exactly at capacity does not adapt on every
	// enqueue, only when the ratio strictly exceeds the threshold.
	highLoadThreshold = 0.8
)

// SendStatus reports how a Send was accommodated.
type SendStatus int

const (
	// Sent means the message fit under (possibly just-grown) capacity.
	Sent SendStatus = iota
	// SentOverCapacity means adaptation declined and the message was queued
	// past nominal capacity. This is a successful send under backpressure,
	// not a failure.
	SentOverCapacity
)

// String returns the status name.
func (s SendStatus) String() string {
	switch s {
	case Sent:
		return "sent"
	case SentOverCapacity:
		return "over_capacity"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Channel is an ordered, capacity-bounded queue between exactly two named
// namespaces. One mutex guards queue, load, and capacity as a single atomic
// unit; it is never held across a call into another component.
//
// Ordering is strict FIFO. The message priority field is advisory metadata
// for the consumer, not enforced by the channel (documented limitation).
type Channel struct {
	id     string
	source string
	target string

	mu             sync.Mutex
	queue          *ring.Ring[*message.Message]
	capacity       uint64
	load           uint64 // invariant outside the critical section: load == queue.Len()
	adaptationRate float64
	threshold      float64
	lastAdaptedAt  int64 // Unix milliseconds

	// Lifetime statistics (atomic, readable without the queue lock)
	sent         atomic.Uint64
	received     atomic.Uint64
	overCapacity atomic.Uint64
	adaptations  atomic.Uint64

	clock   func() time.Time
	metrics *metric.Metrics
}

// Option is a functional option for configuring Channel construction.
type Option func(*Channel)

// WithRate overrides the default adaptation rate.
func WithRate(rate float64) Option {
	return func(c *Channel) {
		c.adaptationRate = rate
	}
}

// WithThreshold overrides the load-ratio threshold above which capacity
// adapts. Raising it past 1.0 makes the channel decline adaptation under
// bursts and queue over capacity instead, pushing backpressure to callers.
func WithThreshold(threshold float64) Option {
	return func(c *Channel) {
		c.threshold = threshold
	}
}

// WithClock overrides the time source. Test seam.
func WithClock(clock func() time.Time) Option {
	return func(c *Channel) {
		c.clock = clock
	}
}

// WithMetrics enables Prometheus instrumentation for this channel.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *Channel) {
		c.metrics = m
	}
}

// New creates a channel between source and target with an initial capacity.
func New(source, target string, capacity uint64, opts ...Option) (*Channel, error) {
	if source == "" || target == "" {
		return nil, errors.WrapInvalid(errors.ErrEmptyDomain, "Channel", "New", "endpoint validation")
	}
	if capacity == 0 {
		return nil, errors.WrapInvalid(errors.ErrZeroCapacity, "Channel", "New", "capacity validation")
	}

	c := &Channel{
		id:             fmt.Sprintf("%s-%s-%d", source, target, timestamp.Now()),
		source:         source,
		target:         target,
		capacity:       capacity,
		adaptationRate: defaultAdaptationRate,
		threshold:      highLoadThreshold,
		clock:          time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ring capacity is only a backing-array hint; it grows as needed.
	initial := capacity
	if initial > 1024 {
		initial = 1024
	}
	c.queue = ring.New[*message.Message](int(initial))

	return c, nil
}

// Send enqueues a message at the tail.
//
// When the channel is at or past capacity it first attempts a capacity
// adaptation. The message is enqueued regardless of the outcome; the status
// distinguishes an ordinary send (the message fit under capacity, possibly
// after growth) from a send queued past capacity.
func (c *Channel) Send(msg *message.Message) (SendStatus, error) {
	if msg == nil {
		return Sent, errors.WrapInvalid(errors.ErrNilMessage, "Channel", "Send", "message validation")
	}

	c.mu.Lock()
	adapted := false
	if c.load >= c.capacity {
		adapted = c.adaptLocked()
	}
	fits := c.load < c.capacity

	msg.StampCreated(c.clock())
	c.queue.Push(msg)
	c.load++
	load, capacity := c.load, c.capacity
	c.mu.Unlock()

	c.sent.Add(1)
	status := Sent
	if !fits {
		status = SentOverCapacity
		c.overCapacity.Add(1)
	}

	if c.metrics != nil {
		c.metrics.RecordMessageSent(c.id, msg.Kind().String(), load, capacity)
		if adapted {
			c.metrics.RecordAdaptation("channel")
		}
		if status == SentOverCapacity {
			c.metrics.RecordOverCapacity(c.id)
		}
	}

	return status, nil
}

// Receive pops the head of the FIFO queue. It never blocks: when no message
// is queued it returns (nil, false). Blocking consumption is layered by the
// caller around this primitive.
func (c *Channel) Receive() (*message.Message, bool) {
	c.mu.Lock()
	msg, ok := c.queue.Pop()
	if ok {
		c.load--
	}
	load := c.load
	c.mu.Unlock()

	if !ok {
		return nil, false
	}

	c.received.Add(1)
	if c.metrics != nil {
		c.metrics.RecordMessageReceived(c.id, load)
	}
	return msg, true
}

// AdaptCapacity grows capacity when the load ratio strictly exceeds the
// high-load threshold. Returns true when capacity grew. Capacity never
// decreases, and a declined adaptation leaves all state untouched,
// lastAdaptedAt included.
func (c *Channel) AdaptCapacity() bool {
	c.mu.Lock()
	adapted := c.adaptLocked()
	c.mu.Unlock()

	if adapted && c.metrics != nil {
		c.metrics.RecordAdaptation("channel")
	}
	return adapted
}

// adaptLocked holds the channel mutex. Growth rounds up and is at least one
// slot, so newCapacity > oldCapacity always holds and a channel can never
// get stuck at the threshold.
func (c *Channel) adaptLocked() bool {
	loadRatio := float64(c.load) / float64(c.capacity)
	if loadRatio <= c.threshold {
		return false
	}

	newCapacity := uint64(math.Ceil(float64(c.capacity) * (1.0 + c.adaptationRate)))
	if newCapacity <= c.capacity {
		newCapacity = c.capacity + 1
	}
	c.capacity = newCapacity
	c.lastAdaptedAt = timestamp.ToUnixMs(c.clock())
	c.adaptations.Add(1)
	return true
}

// ID returns the channel identifier.
func (c *Channel) ID() string { return c.id }

// Source returns the source namespace name.
func (c *Channel) Source() string { return c.source }

// Target returns the target namespace name.
func (c *Channel) Target() string { return c.target }

// Capacity returns the current nominal capacity.
func (c *Channel) Capacity() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

// Load returns the current queued-message count.
func (c *Channel) Load() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load
}

// LoadRatio returns load divided by capacity.
func (c *Channel) LoadRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.load) / float64(c.capacity)
}

// LastAdaptedAt returns the time of the last capacity adaptation,
// zero time when the channel has never adapted.
func (c *Channel) LastAdaptedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return timestamp.ToTime(c.lastAdaptedAt)
}

// Stats is a point-in-time view of the channel's lifetime counters.
type Stats struct {
	Sent         uint64
	Received     uint64
	OverCapacity uint64
	Adaptations  uint64
}

// Stats returns lifetime counters for this channel.
func (c *Channel) Stats() Stats {
	return Stats{
		Sent:         c.sent.Load(),
		Received:     c.received.Load(),
		OverCapacity: c.overCapacity.Load(),
		Adaptations:  c.adaptations.Load(),
	}
}
