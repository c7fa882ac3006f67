// Package message defines the unit of transport exchanged between cognitive
// namespaces. Messages are data-only: they carry no routing or queueing logic,
// that belongs to the channel that owns them while queued.
package message

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/c360/cogmesh/errors"
	"github.com/c360/cogmesh/pkg/timestamp"
)

// Message is the unit transported between namespaces.
//
// A Message is immutable after creation with one exception: the owning
// channel stamps the creation timestamp on first send if the producer did not
// set one (see StampCreated). Ownership follows the queue: created by a
// producer, owned by the channel while queued, transferred to the consumer on
// receive.
//
// Construction uses functional options:
//
//	msg := message.New(message.KindNeural, "transportation", "energy",
//	    []byte("OPTIMIZE_TRAFFIC_FOR_ENERGY_EFFICIENCY"),
//	    message.WithPriority(80),
//	    message.WithConfidence(0.9))
type Message struct {
	id           string
	kind         Kind
	sourceDomain string
	targetDomain string
	swarmID      string
	priority     uint32
	createdAt    int64 // Unix milliseconds; 0 means not yet stamped
	payload      []byte
	confidence   float64
}

// Option is a functional option for configuring Message construction.
type Option func(*Message)

// WithPriority sets the processing priority. Priority is advisory metadata
// for consumers - channels do not reorder by it.
func WithPriority(priority uint32) Option {
	return func(m *Message) {
		m.priority = priority
	}
}

// WithSwarmID associates the message with a swarm.
func WithSwarmID(swarmID string) Option {
	return func(m *Message) {
		m.swarmID = swarmID
	}
}

// WithConfidence sets the confidence level in [0,1].
func WithConfidence(confidence float64) Option {
	return func(m *Message) {
		m.confidence = confidence
	}
}

// WithTime sets a specific creation timestamp instead of leaving it to be
// stamped on first send. Useful for historical data import or testing.
func WithTime(createdAt time.Time) Option {
	return func(m *Message) {
		m.createdAt = timestamp.ToUnixMs(createdAt)
	}
}

// New creates a Message with a generated ID and confidence 1.0.
func New(kind Kind, sourceDomain, targetDomain string, payload []byte, opts ...Option) *Message {
	m := &Message{
		id:           uuid.New().String(),
		kind:         kind,
		sourceDomain: sourceDomain,
		targetDomain: targetDomain,
		payload:      payload,
		confidence:   1.0,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// ID returns the unique message identifier.
func (m *Message) ID() string { return m.id }

// Kind returns the transport type.
func (m *Message) Kind() Kind { return m.kind }

// SourceDomain returns the originating namespace name.
func (m *Message) SourceDomain() string { return m.sourceDomain }

// TargetDomain returns the destination namespace name.
func (m *Message) TargetDomain() string { return m.targetDomain }

// SwarmID returns the associated swarm, or "" when unset.
func (m *Message) SwarmID() string { return m.swarmID }

// Priority returns the advisory processing priority.
func (m *Message) Priority() uint32 { return m.priority }

// CreatedAt returns the creation timestamp, zero time when not yet stamped.
func (m *Message) CreatedAt() time.Time { return timestamp.ToTime(m.createdAt) }

// Payload returns the opaque payload bytes.
func (m *Message) Payload() []byte { return m.payload }

// Confidence returns the confidence level in [0,1].
func (m *Message) Confidence() float64 { return m.confidence }

// StampCreated sets the creation timestamp if it is unset. The owning channel
// calls this on first send; an already-stamped message is left untouched.
func (m *Message) StampCreated(t time.Time) {
	if m.createdAt == 0 {
		m.createdAt = timestamp.ToUnixMs(t)
	}
}

// Validate checks the message for transport.
func (m *Message) Validate() error {
	if !m.kind.IsValid() {
		return errors.WrapInvalid(errors.ErrInvalidArgument, "Message", "Validate",
			fmt.Sprintf("unknown kind %d", uint8(m.kind)))
	}
	if m.sourceDomain == "" || m.targetDomain == "" {
		return errors.WrapInvalid(errors.ErrEmptyDomain, "Message", "Validate", "endpoint validation")
	}
	if m.confidence < 0 || m.confidence > 1 {
		return errors.WrapInvalid(errors.ErrInvalidArgument, "Message", "Validate",
			fmt.Sprintf("confidence %.3f outside [0,1]", m.confidence))
	}
	return nil
}

// String returns a compact human-readable form for logs.
func (m *Message) String() string {
	return fmt.Sprintf("%s %s->%s prio=%d conf=%.2f", m.kind, m.sourceDomain, m.targetDomain, m.priority, m.confidence)
}

// wireFormat is the JSON wire representation of a Message.
// Public fields exist only here; Message itself stays immutable.
type wireFormat struct {
	ID           string  `json:"id"`
	Kind         uint8   `json:"kind"`
	SourceDomain string  `json:"source_domain"`
	TargetDomain string  `json:"target_domain"`
	SwarmID      string  `json:"swarm_id,omitempty"`
	Priority     uint32  `json:"priority"`
	CreatedAt    int64   `json:"created_at"`
	Payload      []byte  `json:"payload,omitempty"`
	Confidence   float64 `json:"confidence"`
}

// MarshalJSON implements json.Marshaler.
func (m *Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireFormat{
		ID:           m.id,
		Kind:         uint8(m.kind),
		SourceDomain: m.sourceDomain,
		TargetDomain: m.targetDomain,
		SwarmID:      m.swarmID,
		Priority:     m.priority,
		CreatedAt:    m.createdAt,
		Payload:      m.payload,
		Confidence:   m.confidence,
	})
}

// UnmarshalJSON implements json.Unmarshaler. The created_at field accepts
// anything timestamp.Parse understands, so producers may send Unix seconds,
// milliseconds, or an RFC3339 string.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire struct {
		wireFormat
		CreatedAt any `json:"created_at"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return errors.WrapInvalid(err, "Message", "UnmarshalJSON", "wire format decode")
	}

	m.id = wire.ID
	m.kind = Kind(wire.Kind)
	m.sourceDomain = wire.SourceDomain
	m.targetDomain = wire.TargetDomain
	m.swarmID = wire.SwarmID
	m.priority = wire.Priority
	m.createdAt = timestamp.Parse(wire.CreatedAt)
	m.payload = wire.Payload
	m.confidence = wire.Confidence

	return m.Validate()
}
