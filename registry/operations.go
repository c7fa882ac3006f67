package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/c360/cogmesh/channel"
	"github.com/c360/cogmesh/errors"
	"github.com/c360/cogmesh/namespace"
	"github.com/c360/cogmesh/pattern"
	"github.com/c360/cogmesh/swarm"
)

// EmergencePatternName is the pattern recorded when correlated high load is
// observed across domains.
const EmergencePatternName = "high-load-correlation"

// CreateNamespace registers a new cognitive namespace in manual adaptation
// mode.
func (r *Registry) CreateNamespace(domain, rootPath string) (*namespace.Namespace, error) {
	ns, err := namespace.New(domain, rootPath, namespace.WithMetrics(r.metrics))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.namespaces[domain]; exists {
		return nil, errors.WrapExists(errors.ErrAlreadyExists, "Registry", "CreateNamespace", "namespace registration")
	}
	r.namespaces[domain] = ns
	r.modes[domain] = ModeManual
	return ns, nil
}

// SetAdaptMode switches a namespace between manual and auto adaptation.
func (r *Registry) SetAdaptMode(domain, mode string) error {
	if mode != ModeManual && mode != ModeAuto {
		return errors.WrapInvalid(
			fmt.Errorf("unknown adaptation mode %q", mode),
			"Registry", "SetAdaptMode", "mode validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.namespaces[domain]; !exists {
		return errors.WrapNotFound(errors.ErrNotFound, "Registry", "SetAdaptMode", "namespace lookup")
	}
	r.modes[domain] = mode
	return nil
}

// AdaptMode returns the namespace's adaptation mode.
func (r *Registry) AdaptMode(domain string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mode, exists := r.modes[domain]
	if !exists {
		return "", errors.WrapNotFound(errors.ErrNotFound, "Registry", "AdaptMode", "namespace lookup")
	}
	return mode, nil
}

// BindChannel creates a channel between two existing namespaces and binds it
// to both endpoints.
func (r *Registry) BindChannel(source, target string, bandwidth uint64) (*channel.Channel, error) {
	r.mu.RLock()
	src, srcOK := r.namespaces[source]
	dst, dstOK := r.namespaces[target]
	r.mu.RUnlock()

	if !srcOK || !dstOK {
		return nil, errors.WrapNotFound(errors.ErrNotFound, "Registry", "BindChannel", "endpoint lookup")
	}

	ch, err := channel.New(source, target, bandwidth, channel.WithMetrics(r.metrics))
	if err != nil {
		return nil, err
	}

	// Register before touching the endpoints: an id collision must not leave
	// a channel bound into the namespaces but absent from the registry.
	r.mu.Lock()
	if _, exists := r.channels[ch.ID()]; exists {
		r.mu.Unlock()
		return nil, errors.WrapExists(errors.ErrAlreadyExists, "Registry", "BindChannel", "channel registration")
	}
	r.channels[ch.ID()] = ch
	r.mu.Unlock()

	if err := src.BindChannel(ch); err != nil {
		r.unregisterChannel(ch.ID())
		return nil, err
	}
	if src != dst {
		if err := dst.BindChannel(ch); err != nil {
			r.unregisterChannel(ch.ID())
			return nil, err
		}
	}
	return ch, nil
}

func (r *Registry) unregisterChannel(id string) {
	r.mu.Lock()
	delete(r.channels, id)
	r.mu.Unlock()
}

// CreateSwarm creates a swarm in the given domain with a fresh coordination
// channel. Members and agents are added separately.
func (r *Registry) CreateSwarm(id, domain string, coordCapacity uint64) (*swarm.Swarm, error) {
	if coordCapacity == 0 {
		coordCapacity = swarm.DefaultCoordinationCapacity
	}

	r.mu.RLock()
	_, domainOK := r.namespaces[domain]
	r.mu.RUnlock()
	if !domainOK {
		return nil, errors.WrapNotFound(errors.ErrNotFound, "Registry", "CreateSwarm", "domain lookup")
	}

	coord, err := channel.New(domain, swarm.CoordinationDomain, coordCapacity, channel.WithMetrics(r.metrics))
	if err != nil {
		return nil, err
	}
	sw, err := swarm.New(id, domain, coord,
		swarm.WithMetrics(r.metrics),
		swarm.WithMetricsRegistry(r.metricsRegistry))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.swarms[id]; exists {
		return nil, errors.WrapExists(errors.ErrAlreadyExists, "Registry", "CreateSwarm", "swarm registration")
	}
	r.swarms[id] = sw
	if r.metrics != nil {
		r.metrics.RecordSwarmCount(len(r.swarms))
	}
	return sw, nil
}

// StartSwarm creates a swarm, registers the requested number of agent
// members, and starts the agent pool on the registry's handler.
func (r *Registry) StartSwarm(ctx context.Context, id, domain string, agents int) (*swarm.Swarm, error) {
	sw, err := r.CreateSwarm(id, domain, swarm.DefaultCoordinationCapacity)
	if err != nil {
		return nil, err
	}
	if err := addAgentMembers(sw, agents); err != nil {
		return nil, err
	}
	if err := sw.StartAgents(ctx, agents, r.agentHandler); err != nil {
		return nil, err
	}
	r.logger.Info("swarm started", "swarm", id, "domain", domain, "agents", sw.MemberCount())
	return sw, nil
}

// StartSwarmAgents starts the agent pool of an existing swarm on the
// registry's handler, sized to its membership when n is not positive.
func (r *Registry) StartSwarmAgents(ctx context.Context, id string, n int) error {
	sw, err := r.Swarm(id)
	if err != nil {
		return err
	}
	if n <= 0 {
		n = sw.MemberCount()
	}
	return sw.StartAgents(ctx, n, r.agentHandler)
}

// addAgentMembers registers handles agent-1..agent-n on the swarm.
func addAgentMembers(sw *swarm.Swarm, n int) error {
	for i := 1; i <= n; i++ {
		if err := sw.AddMember(fmt.Sprintf("agent-%d", i)); err != nil {
			return err
		}
	}
	return nil
}

// DetectPattern records an observation of the named pattern.
func (r *Registry) DetectPattern(name string, domains []string) (pattern.Pattern, error) {
	p, err := r.patterns.Detect(name, domains)
	if err != nil {
		return pattern.Pattern{}, err
	}
	r.patternsDetected.Add(1)
	return p, nil
}

// DetectEmergence measures every namespace's cognitive load and, when two or
// more domains sit at or above the threshold, records that correlation as an
// emergent pattern. Returns false with no error when nothing qualifies.
func (r *Registry) DetectEmergence(threshold float64) (pattern.Pattern, bool, error) {
	r.mu.RLock()
	all := make([]*namespace.Namespace, 0, len(r.namespaces))
	for _, ns := range r.namespaces {
		all = append(all, ns)
	}
	r.mu.RUnlock()

	qualifying := make([]string, 0, len(all))
	for _, ns := range all {
		if float64(ns.MeasureLoad()) >= threshold {
			qualifying = append(qualifying, ns.Domain())
		}
	}
	if len(qualifying) < 2 {
		return pattern.Pattern{}, false, nil
	}
	sort.Strings(qualifying)

	p, err := r.DetectPattern(EmergencePatternName, qualifying)
	if err != nil {
		return pattern.Pattern{}, false, err
	}
	r.logger.Info("emergence detected",
		"pattern", p.Name,
		"domains", qualifying,
		"significance", p.Significance)
	return p, true, nil
}

// AdaptNamespace runs one manual adaptation pass on the namespace.
func (r *Registry) AdaptNamespace(domain string) (namespace.AdaptReport, error) {
	ns, err := r.Namespace(domain)
	if err != nil {
		return namespace.AdaptReport{}, err
	}
	return ns.Adapt(), nil
}

// Namespace returns the namespace for domain.
func (r *Registry) Namespace(domain string) (*namespace.Namespace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ns, exists := r.namespaces[domain]
	if !exists {
		return nil, errors.WrapNotFound(errors.ErrNotFound, "Registry", "Namespace", "namespace lookup")
	}
	return ns, nil
}

// Channel returns the channel with the given id.
func (r *Registry) Channel(id string) (*channel.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, exists := r.channels[id]
	if !exists {
		return nil, errors.WrapNotFound(errors.ErrNotFound, "Registry", "Channel", "channel lookup")
	}
	return ch, nil
}

// Swarm returns the swarm with the given id.
func (r *Registry) Swarm(id string) (*swarm.Swarm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sw, exists := r.swarms[id]
	if !exists {
		return nil, errors.WrapNotFound(errors.ErrNotFound, "Registry", "Swarm", "swarm lookup")
	}
	return sw, nil
}

// Pattern returns the pattern with the given name.
func (r *Registry) Pattern(name string) (pattern.Pattern, error) {
	return r.patterns.Get(name)
}

// Patterns returns every recorded pattern sorted by name.
func (r *Registry) Patterns() []pattern.Pattern {
	return r.patterns.List()
}
