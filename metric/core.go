package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics (not component-specific)
type Metrics struct {
	// Transport metrics
	MessagesSent      *prometheus.CounterVec
	MessagesReceived  *prometheus.CounterVec
	OverCapacitySends *prometheus.CounterVec
	ChannelLoad       *prometheus.GaugeVec
	ChannelCapacity   *prometheus.GaugeVec

	// Adaptation metrics
	Adaptations   *prometheus.CounterVec
	NamespaceLoad *prometheus.GaugeVec

	// Coordination metrics
	SwarmCoherence *prometheus.GaugeVec
	SwarmsActive   prometheus.Gauge

	// Emergence metrics
	PatternsDetected *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cogmesh",
				Subsystem: "messages",
				Name:      "sent_total",
				Help:      "Total number of messages accepted by Send",
			},
			[]string{"channel", "kind"},
		),

		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cogmesh",
				Subsystem: "messages",
				Name:      "received_total",
				Help:      "Total number of messages returned by Receive",
			},
			[]string{"channel"},
		),

		OverCapacitySends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cogmesh",
				Subsystem: "messages",
				Name:      "over_capacity_total",
				Help:      "Total number of sends queued past nominal capacity",
			},
			[]string{"channel"},
		),

		ChannelLoad: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "cogmesh",
				Subsystem: "channel",
				Name:      "load",
				Help:      "Current queued-message count per channel",
			},
			[]string{"channel"},
		),

		ChannelCapacity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "cogmesh",
				Subsystem: "channel",
				Name:      "capacity",
				Help:      "Current nominal capacity per channel",
			},
			[]string{"channel"},
		),

		Adaptations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cogmesh",
				Subsystem: "adaptation",
				Name:      "total",
				Help:      "Total number of capacity adaptations performed",
			},
			[]string{"scope"}, // scope: channel, namespace
		),

		NamespaceLoad: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "cogmesh",
				Subsystem: "namespace",
				Name:      "cognitive_load",
				Help:      "Aggregated cognitive load per namespace",
			},
			[]string{"domain"},
		),

		SwarmCoherence: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "cogmesh",
				Subsystem: "swarm",
				Name:      "coherence",
				Help:      "Last computed coherence per swarm (0-1)",
			},
			[]string{"swarm"},
		),

		SwarmsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cogmesh",
				Subsystem: "swarm",
				Name:      "active",
				Help:      "Current number of registered swarms",
			},
		),

		PatternsDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cogmesh",
				Subsystem: "patterns",
				Name:      "detected_total",
				Help:      "Total number of pattern detections",
			},
			[]string{"status"}, // status: new, reinforced
		),
	}
}

// RecordMessageSent increments the sent counter and updates channel gauges
func (c *Metrics) RecordMessageSent(channel, kind string, load, capacity uint64) {
	c.MessagesSent.WithLabelValues(channel, kind).Inc()
	c.ChannelLoad.WithLabelValues(channel).Set(float64(load))
	c.ChannelCapacity.WithLabelValues(channel).Set(float64(capacity))
}

// RecordMessageReceived increments the received counter and updates load
func (c *Metrics) RecordMessageReceived(channel string, load uint64) {
	c.MessagesReceived.WithLabelValues(channel).Inc()
	c.ChannelLoad.WithLabelValues(channel).Set(float64(load))
}

// RecordOverCapacity increments the over-capacity send counter
func (c *Metrics) RecordOverCapacity(channel string) {
	c.OverCapacitySends.WithLabelValues(channel).Inc()
}

// RecordAdaptation increments the adaptation counter for a scope
func (c *Metrics) RecordAdaptation(scope string) {
	c.Adaptations.WithLabelValues(scope).Inc()
}

// RecordNamespaceLoad updates the aggregated load gauge for a domain
func (c *Metrics) RecordNamespaceLoad(domain string, load uint64) {
	c.NamespaceLoad.WithLabelValues(domain).Set(float64(load))
}

// RecordSwarmCoherence updates the coherence gauge for a swarm
func (c *Metrics) RecordSwarmCoherence(swarm string, coherence float64) {
	c.SwarmCoherence.WithLabelValues(swarm).Set(coherence)
}

// RecordSwarmCount sets the active swarm gauge
func (c *Metrics) RecordSwarmCount(count int) {
	c.SwarmsActive.Set(float64(count))
}

// RecordPatternDetected increments the pattern counter with a status of
// "new" or "reinforced"
func (c *Metrics) RecordPatternDetected(status string) {
	c.PatternsDetected.WithLabelValues(status).Inc()
}
