// Package pattern records emergent behavior patterns observed across
// domains and tracks their significance over repeated detections.
package pattern

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360/cogmesh/errors"
	"github.com/c360/cogmesh/metric"
	"github.com/c360/cogmesh/pkg/timestamp"
)

const (
	// initialSignificance is assigned on first detection.
	initialSignificance = 0.5
	// significanceStep is added per re-detection, capped at 1.0.
	significanceStep = 0.05
)

// Pattern is one named emergent behavior. Fields are snapshots taken under
// the store lock; a Pattern value does not change after it is returned.
type Pattern struct {
	ID               string
	Name             string
	Description      string
	Domains          []string
	ObservationCount uint64
	Significance     float64
	FirstObservedAt  time.Time
	LastObservedAt   time.Time
}

// String renders the pattern the way the stats listing shows it.
func (p Pattern) String() string {
	return fmt.Sprintf("%s: observations=%d significance=%.2f domains=%s",
		p.Name, p.ObservationCount, p.Significance, strings.Join(p.Domains, ","))
}

// record is the store's mutable state for one pattern.
type record struct {
	id              string
	name            string
	description     string
	domains         []string
	count           uint64
	significance    float64
	firstObservedAt int64 // Unix milliseconds
	lastObservedAt  int64
}

// Store deduplicates patterns by canonical name. Detecting a name again
// strengthens the existing pattern instead of creating a duplicate.
type Store struct {
	mu       sync.Mutex
	patterns map[string]*record

	clock   func() time.Time
	metrics *metric.Metrics
}

// Option is a functional option for configuring Store construction.
type Option func(*Store)

// WithClock overrides the time source. Test seam.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithMetrics enables Prometheus instrumentation for this store.
func WithMetrics(m *metric.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates an empty pattern store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		patterns: make(map[string]*record),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Canonicalize normalizes a pattern name for deduplication: surrounding
// whitespace stripped, lowered.
func Canonicalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Detect records an observation of the named pattern across the given
// domains. A new name creates the pattern with the initial significance; a
// known name strengthens it. The domain set of the first observation is
// kept; later observations never widen it.
func (s *Store) Detect(name string, domains []string) (Pattern, error) {
	canonical := Canonicalize(name)
	if canonical == "" {
		return Pattern{}, errors.WrapInvalid(errors.ErrInvalidArgument, "Store", "Detect", "name validation")
	}
	if len(domains) == 0 {
		return Pattern{}, errors.WrapInvalid(errors.ErrEmptyDomainSet, "Store", "Detect", "domain validation")
	}

	s.mu.Lock()
	now := timestamp.ToUnixMs(s.clock())
	rec, known := s.patterns[canonical]
	if known {
		rec.count++
		rec.lastObservedAt = now
		rec.significance += significanceStep
		if rec.significance > 1.0 {
			rec.significance = 1.0
		}
	} else {
		rec = &record{
			id:              "pattern-" + uuid.NewString(),
			name:            canonical,
			description:     fmt.Sprintf("emergent pattern across %s", strings.Join(domains, ", ")),
			domains:         append([]string(nil), domains...),
			count:           1,
			significance:    initialSignificance,
			firstObservedAt: now,
			lastObservedAt:  now,
		}
		s.patterns[canonical] = rec
	}
	snap := rec.snapshot()
	s.mu.Unlock()

	if s.metrics != nil {
		status := "new"
		if known {
			status = "reinforced"
		}
		s.metrics.RecordPatternDetected(status)
	}
	return snap, nil
}

// Get returns the pattern with the given (canonicalized) name.
func (s *Store) Get(name string) (Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.patterns[Canonicalize(name)]
	if !ok {
		return Pattern{}, errors.WrapNotFound(errors.ErrNotFound, "Store", "Get", "pattern lookup")
	}
	return rec.snapshot(), nil
}

// List returns every pattern sorted by name.
func (s *Store) List() []Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pattern, 0, len(s.patterns))
	for _, rec := range s.patterns {
		out = append(out, rec.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of distinct patterns.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patterns)
}

func (r *record) snapshot() Pattern {
	return Pattern{
		ID:               r.id,
		Name:             r.name,
		Description:      r.description,
		Domains:          append([]string(nil), r.domains...),
		ObservationCount: r.count,
		Significance:     r.significance,
		FirstObservedAt:  timestamp.ToTime(r.firstObservedAt),
		LastObservedAt:   timestamp.ToTime(r.lastObservedAt),
	}
}
