package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360/cogmesh/registry"
)

// handler executes one decoded command against the registry.
type handler func(ctx context.Context, cmd Command) (string, error)

// Dispatcher routes decoded commands to their handlers. One dispatcher
// serves the whole process; it holds no state beyond the registry.
type Dispatcher struct {
	registry *registry.Registry
	logger   *slog.Logger
	handlers map[string]handler
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher builds the verb-to-handler table over the registry.
func NewDispatcher(reg *registry.Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.handlers = map[string]handler{
		VerbCreateNamespace: d.createNamespace,
		VerbBindChannel:     d.bindChannel,
		VerbStartSwarm:      d.startSwarm,
		VerbDetectEmergence: d.detectEmergence,
		VerbAdaptNamespace:  d.adaptNamespace,
	}
	return d
}

// Execute decodes and runs one control line, returning the textual response.
// Errors echo the triggering verb and never expose internal state.
func (d *Dispatcher) Execute(ctx context.Context, line string) (string, error) {
	cmd, err := ParseCommand(line)
	if err != nil {
		return "", err
	}

	h, ok := d.handlers[cmd.Verb()]
	if !ok {
		return "", fmt.Errorf("%s: no handler registered", cmd.Verb())
	}

	response, err := h(ctx, cmd)
	if err != nil {
		d.logger.Warn("control command failed", "verb", cmd.Verb(), "error", err)
		return "", fmt.Errorf("%s: %w", cmd.Verb(), err)
	}
	d.logger.Info("control command executed", "verb", cmd.Verb())
	return response, nil
}

func (d *Dispatcher) createNamespace(_ context.Context, cmd Command) (string, error) {
	c := cmd.(CreateNamespace)
	ns, err := d.registry.CreateNamespace(c.Domain, c.Path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("namespace %s created at %s\n", ns.Domain(), ns.RootPath()), nil
}

func (d *Dispatcher) bindChannel(_ context.Context, cmd Command) (string, error) {
	c := cmd.(BindChannel)
	ch, err := d.registry.BindChannel(c.Source, c.Target, c.Bandwidth)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("channel %s bound: %s -> %s (bandwidth %d)\n",
		ch.ID(), ch.Source(), ch.Target(), ch.Capacity()), nil
}

func (d *Dispatcher) startSwarm(ctx context.Context, cmd Command) (string, error) {
	c := cmd.(StartSwarm)
	sw, err := d.registry.StartSwarm(ctx, c.ID, c.Domain, c.Agents)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("swarm %s started in domain %s with %d agents\n",
		sw.ID(), sw.Domain(), sw.MemberCount()), nil
}

func (d *Dispatcher) detectEmergence(_ context.Context, cmd Command) (string, error) {
	c := cmd.(DetectEmergence)
	p, found, err := d.registry.DetectEmergence(c.Threshold)
	if err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("no emergence detected (threshold %g)\n", c.Threshold), nil
	}
	return fmt.Sprintf("emergence detected: %s\n", p.String()), nil
}

func (d *Dispatcher) adaptNamespace(_ context.Context, cmd Command) (string, error) {
	c := cmd.(AdaptNamespace)
	if err := d.registry.SetAdaptMode(c.Domain, c.Mode); err != nil {
		return "", err
	}
	if c.Mode == registry.ModeAuto {
		return fmt.Sprintf("namespace %s set to auto adaptation\n", c.Domain), nil
	}

	report, err := d.registry.AdaptNamespace(c.Domain)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("namespace %s adapted: load=%d channels_grown=%d\n",
		c.Domain, report.CognitiveLoad, report.Adaptations), nil
}
