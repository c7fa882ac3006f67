// Package worker provides a generic pool of polling agents.
//
// Unlike a push-based work queue, agents here pull: each agent wakes on a
// ticker, drains its source via the poll function until it reports empty,
// and hands every item to the handler. This matches sources that expose a
// non-blocking receive rather than a blocking channel, such as the swarm
// coordination channels.
//
// All public methods are safe for concurrent use. Statistics are always
// tracked with atomics and readable without locks.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/cogmesh/metric"
)

const (
	// defaultAgents is the agent count used when none is given.
	defaultAgents = 3
	// defaultPollInterval is how long an agent sleeps after finding its
	// source empty.
	defaultPollInterval = 10 * time.Millisecond
)

// Pool runs a fixed set of agents that repeatedly poll a source for items of
// type T and process them with the handler.
type Pool[T any] struct {
	agents   int
	interval time.Duration
	poll     func() (T, bool)
	handler  func(context.Context, T) error

	lifecycleMu sync.Mutex
	started     bool
	stopped     bool
	cancel      context.CancelFunc
	wg          *sync.WaitGroup

	// Statistics (atomic)
	processed atomic.Int64
	failed    atomic.Int64

	// Metrics configuration
	metricsRegistry *metric.MetricsRegistry
	metricsPrefix   string
	metrics         *Metrics
}

// Metrics holds Prometheus metrics for agent pool monitoring
type Metrics struct {
	agents    prometheus.Gauge
	processed prometheus.Counter
	failed    prometheus.Counter
}

// Option represents a configuration option for the agent pool
type Option[T any] func(*Pool[T])

// WithPollInterval overrides how long an idle agent waits between polls.
func WithPollInterval[T any](interval time.Duration) Option[T] {
	return func(p *Pool[T]) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithMetricsRegistry configures the pool to register metrics with the
// framework's registry. The prefix distinguishes pools sharing one registry.
func WithMetricsRegistry[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(p *Pool[T]) {
		p.metricsRegistry = registry
		p.metricsPrefix = prefix
	}
}

// NewPool creates an agent pool. A non-positive agent count falls back to
// the default. Nil poll or handler functions are programming errors and
// panic.
func NewPool[T any](agents int, poll func() (T, bool), handler func(context.Context, T) error, opts ...Option[T]) *Pool[T] {
	if agents <= 0 {
		agents = defaultAgents
	}
	if poll == nil {
		panic(ErrNilPoller)
	}
	if handler == nil {
		panic(ErrNilHandler)
	}

	pool := &Pool[T]{
		agents:   agents,
		interval: defaultPollInterval,
		poll:     poll,
		handler:  handler,
	}
	for _, opt := range opts {
		opt(pool)
	}

	if pool.metricsRegistry != nil && pool.metricsPrefix != "" {
		pool.initializeMetrics()
	}
	return pool
}

// initializeMetrics creates and registers metrics with the framework's
// registry. Registration conflicts leave the pool on atomics only.
func (p *Pool[T]) initializeMetrics() {
	prefix := p.metricsPrefix

	agents := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: prefix + "_agents",
		Help: "Configured agent count for this pool",
	})
	processed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: prefix + "_processed_total",
		Help: "Total items processed by this pool",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: prefix + "_failed_total",
		Help: "Total items whose handler returned an error",
	})

	serviceName := "agent_pool"
	if err := p.metricsRegistry.RegisterGauge(serviceName, prefix+"_agents", agents); err != nil {
		return
	}
	if err := p.metricsRegistry.RegisterCounter(serviceName, prefix+"_processed_total", processed); err != nil {
		p.metricsRegistry.Unregister(serviceName, prefix+"_agents")
		return
	}
	if err := p.metricsRegistry.RegisterCounter(serviceName, prefix+"_failed_total", failed); err != nil {
		p.metricsRegistry.Unregister(serviceName, prefix+"_agents")
		p.metricsRegistry.Unregister(serviceName, prefix+"_processed_total")
		return
	}

	agents.Set(float64(p.agents))
	p.metrics = &Metrics{
		agents:    agents,
		processed: processed,
		failed:    failed,
	}
}

// releaseMetrics unregisters the pool's metrics so a later pool may reuse
// the prefix.
func (p *Pool[T]) releaseMetrics() {
	if p.metrics == nil {
		return
	}
	serviceName := "agent_pool"
	p.metricsRegistry.Unregister(serviceName, p.metricsPrefix+"_agents")
	p.metricsRegistry.Unregister(serviceName, p.metricsPrefix+"_processed_total")
	p.metricsRegistry.Unregister(serviceName, p.metricsPrefix+"_failed_total")
	p.metrics = nil
}

// Start launches the agents. The context bounds their lifetime; cancelling
// it stops all agents as Stop does.
func (p *Pool[T]) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}
	if p.stopped {
		return ErrPoolStopped
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg = &sync.WaitGroup{}
	for i := 0; i < p.agents; i++ {
		p.wg.Add(1)
		go p.agent(ctx)
	}

	p.started = true
	return nil
}

// Stop cancels the agents and waits up to timeout for them to exit.
// Idempotent.
func (p *Pool[T]) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.started || p.stopped {
		return nil
	}
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		p.stopped = true
		p.releaseMetrics()
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}

// PoolStats represents agent pool statistics
type PoolStats struct {
	Agents    int   `json:"agents"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

// Stats returns current pool statistics
func (p *Pool[T]) Stats() PoolStats {
	return PoolStats{
		Agents:    p.agents,
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Agents returns the configured agent count.
func (p *Pool[T]) Agents() int { return p.agents }

// agent drains the source on each tick, then sleeps until the next one.
func (p *Pool[T]) agent(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				item, ok := p.poll()
				if !ok {
					break
				}
				if err := p.handler(ctx, item); err != nil {
					p.failed.Add(1)
					if p.metrics != nil {
						p.metrics.failed.Inc()
					}
				}
				p.processed.Add(1)
				if p.metrics != nil {
					p.metrics.processed.Inc()
				}

				select {
				case <-ctx.Done():
					return
				default:
				}
			}
		}
	}
}
