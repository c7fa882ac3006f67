package registry

import (
	"sort"
	"time"

	"github.com/c360/cogmesh/channel"
	"github.com/c360/cogmesh/namespace"
	"github.com/c360/cogmesh/pattern"
	"github.com/c360/cogmesh/swarm"
)

// DomainRow is one namespace in a snapshot.
type DomainRow struct {
	Domain        string `json:"domain"`
	RootPath      string `json:"root_path"`
	Mode          string `json:"mode"`
	Channels      int    `json:"channels"`
	CognitiveLoad uint64 `json:"cognitive_load"`
}

// ChannelRow is one channel in a snapshot.
type ChannelRow struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Capacity uint64 `json:"capacity"`
	Load     uint64 `json:"load"`
}

// SwarmRow is one swarm in a snapshot.
type SwarmRow struct {
	ID        string  `json:"id"`
	Domain    string  `json:"domain"`
	Members   int     `json:"members"`
	Coherence float64 `json:"coherence"`
	Processed int64   `json:"processed"`
}

// Counters aggregates the mesh's lifetime activity.
type Counters struct {
	MessagesSent     uint64 `json:"messages_sent"`
	MessagesReceived uint64 `json:"messages_received"`
	OverCapacity     uint64 `json:"over_capacity"`
	Adaptations      uint64 `json:"adaptations"`
	PatternsDetected uint64 `json:"patterns_detected"`
}

// Snapshot is a point-in-time view of the whole mesh, suitable for the
// control surface. Rows are sorted for stable rendering.
type Snapshot struct {
	Taken    time.Time         `json:"taken"`
	Domains  []DomainRow       `json:"domains"`
	Channels []ChannelRow      `json:"channels"`
	Swarms   []SwarmRow        `json:"swarms"`
	Patterns []pattern.Pattern `json:"patterns"`
	Counters Counters          `json:"counters"`
}

// Snapshot collects a consistent view of the registry. Entity refs are
// gathered under the read lock; each entity is then queried through its own
// synchronization, so it never blocks writers for long.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	namespaces := make([]*namespace.Namespace, 0, len(r.namespaces))
	modes := make(map[string]string, len(r.modes))
	for domain, ns := range r.namespaces {
		namespaces = append(namespaces, ns)
		modes[domain] = r.modes[domain]
	}
	channels := make([]*channel.Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		channels = append(channels, ch)
	}
	swarms := make([]*swarm.Swarm, 0, len(r.swarms))
	for _, sw := range r.swarms {
		swarms = append(swarms, sw)
	}
	r.mu.RUnlock()

	snap := Snapshot{
		Taken:    time.Now(),
		Domains:  make([]DomainRow, 0, len(namespaces)),
		Channels: make([]ChannelRow, 0, len(channels)),
		Swarms:   make([]SwarmRow, 0, len(swarms)),
		Patterns: r.patterns.List(),
	}

	for _, ns := range namespaces {
		snap.Domains = append(snap.Domains, DomainRow{
			Domain:        ns.Domain(),
			RootPath:      ns.RootPath(),
			Mode:          modes[ns.Domain()],
			Channels:      ns.ChannelCount(),
			CognitiveLoad: ns.MeasureLoad(),
		})
	}
	sort.Slice(snap.Domains, func(i, j int) bool { return snap.Domains[i].Domain < snap.Domains[j].Domain })

	tally := func(ch *channel.Channel) {
		stats := ch.Stats()
		snap.Counters.MessagesSent += stats.Sent
		snap.Counters.MessagesReceived += stats.Received
		snap.Counters.OverCapacity += stats.OverCapacity
		snap.Counters.Adaptations += stats.Adaptations
	}

	for _, ch := range channels {
		snap.Channels = append(snap.Channels, ChannelRow{
			ID:       ch.ID(),
			Source:   ch.Source(),
			Target:   ch.Target(),
			Capacity: ch.Capacity(),
			Load:     ch.Load(),
		})
		tally(ch)
	}
	sort.Slice(snap.Channels, func(i, j int) bool { return snap.Channels[i].ID < snap.Channels[j].ID })

	for _, sw := range swarms {
		snap.Swarms = append(snap.Swarms, SwarmRow{
			ID:        sw.ID(),
			Domain:    sw.Domain(),
			Members:   sw.MemberCount(),
			Coherence: sw.Coherence(),
			Processed: sw.AgentStats().Processed,
		})
		tally(sw.Coordination())
	}
	sort.Slice(snap.Swarms, func(i, j int) bool { return snap.Swarms[i].ID < snap.Swarms[j].ID })

	snap.Counters.PatternsDetected = r.patternsDetected.Load()
	return snap
}
