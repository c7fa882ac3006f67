package control

import (
	"fmt"
	"strings"

	"github.com/c360/cogmesh/pkg/timestamp"
	"github.com/c360/cogmesh/registry"
)

// RenderDomains lists the domain names, one per line.
func RenderDomains(snap registry.Snapshot) string {
	var b strings.Builder
	for _, d := range snap.Domains {
		b.WriteString(d.Domain)
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return "No cognitive domains\n"
	}
	return b.String()
}

// RenderChannels lists the channels in the classic listing shape.
func RenderChannels(snap registry.Snapshot) string {
	if len(snap.Channels) == 0 {
		return "No neural channels\n"
	}
	var b strings.Builder
	for _, ch := range snap.Channels {
		fmt.Fprintf(&b, "%s-%s: bandwidth=%d load=%d\n", ch.Source, ch.Target, ch.Capacity, ch.Load)
	}
	return b.String()
}

// RenderSwarms lists the swarms with membership and coherence.
func RenderSwarms(snap registry.Snapshot) string {
	if len(snap.Swarms) == 0 {
		return "No active swarms\n"
	}
	var b strings.Builder
	for _, sw := range snap.Swarms {
		fmt.Fprintf(&b, "%s: domain=%s members=%d coherence=%.2f\n",
			sw.ID, sw.Domain, sw.Members, sw.Coherence)
	}
	return b.String()
}

// RenderPatterns lists the detected emergent patterns with their
// observation times.
func RenderPatterns(snap registry.Snapshot) string {
	if len(snap.Patterns) == 0 {
		return "No emergent patterns\n"
	}
	var b strings.Builder
	for _, p := range snap.Patterns {
		fmt.Fprintf(&b, "%s first=%s last=%s\n", p.String(),
			timestamp.Format(timestamp.ToUnixMs(p.FirstObservedAt)),
			timestamp.Format(timestamp.ToUnixMs(p.LastObservedAt)))
	}
	return b.String()
}

// RenderStats renders the aggregate statistics block.
func RenderStats(snap registry.Snapshot) string {
	var b strings.Builder
	b.WriteString("Cognitive Statistics\n")
	b.WriteString("===================\n")
	b.WriteString("Uptime: Active\n")
	fmt.Fprintf(&b, "Messages processed: %d\n", snap.Counters.MessagesSent)
	fmt.Fprintf(&b, "Messages received: %d\n", snap.Counters.MessagesReceived)
	fmt.Fprintf(&b, "Over-capacity sends: %d\n", snap.Counters.OverCapacity)
	fmt.Fprintf(&b, "Patterns detected: %d\n", snap.Counters.PatternsDetected)
	fmt.Fprintf(&b, "Adaptations performed: %d\n", snap.Counters.Adaptations)
	return b.String()
}

// RenderMonitor renders the one-screen monitor summary.
func RenderMonitor(snap registry.Snapshot) string {
	var b strings.Builder
	b.WriteString("Cognitive Cities Monitor - Active\n")
	fmt.Fprintf(&b, "Domains: %d | Channels: %d | Swarms: %d\n",
		len(snap.Domains), len(snap.Channels), len(snap.Swarms))
	fmt.Fprintf(&b, "Overall cognitive load: %d%%\n", overallLoadPercent(snap))
	return b.String()
}

// overallLoadPercent is the mean channel load ratio, as a percentage.
func overallLoadPercent(snap registry.Snapshot) int {
	if len(snap.Channels) == 0 {
		return 0
	}
	var total float64
	for _, ch := range snap.Channels {
		if ch.Capacity > 0 {
			total += float64(ch.Load) / float64(ch.Capacity)
		}
	}
	return int(total / float64(len(snap.Channels)) * 100)
}
