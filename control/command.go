// Package control decodes the textual control protocol into typed commands,
// dispatches them against the registry, and renders the textual listings the
// control surface serves.
package control

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/cogmesh/errors"
	"github.com/c360/cogmesh/registry"
)

// Command verbs.
const (
	VerbCreateNamespace = "create-namespace"
	VerbBindChannel     = "bind-channel"
	VerbStartSwarm      = "start-swarm"
	VerbDetectEmergence = "detect-emergence"
	VerbAdaptNamespace  = "adapt-namespace"
)

// Defaults for optional command arguments.
const (
	DefaultBandwidth = 1000
	DefaultAgents    = 3
	DefaultThreshold = 100.0
)

// Command is one decoded control command. The concrete type carries the
// arguments; Verb names the wire form for echoing in errors and logs.
type Command interface {
	Verb() string
}

// CreateNamespace creates a cognitive namespace.
type CreateNamespace struct {
	Domain string
	Path   string
}

// Verb implements Command.
func (CreateNamespace) Verb() string { return VerbCreateNamespace }

// BindChannel binds a channel between two namespaces.
type BindChannel struct {
	Source    string
	Target    string
	Bandwidth uint64
}

// Verb implements Command.
func (BindChannel) Verb() string { return VerbBindChannel }

// StartSwarm creates a swarm and starts its agents.
type StartSwarm struct {
	ID     string
	Domain string
	Agents int
}

// Verb implements Command.
func (StartSwarm) Verb() string { return VerbStartSwarm }

// DetectEmergence triggers one emergence detection pass. Domain is advisory:
// detection always correlates across the whole mesh.
type DetectEmergence struct {
	Domain    string
	Threshold float64
}

// Verb implements Command.
func (DetectEmergence) Verb() string { return VerbDetectEmergence }

// AdaptNamespace switches a namespace's adaptation mode; manual mode also
// runs one adaptation pass immediately.
type AdaptNamespace struct {
	Domain string
	Mode   string
}

// Verb implements Command.
func (AdaptNamespace) Verb() string { return VerbAdaptNamespace }

// ParseCommand tokenizes one control line into a typed command. Optional
// numeric arguments take their documented defaults; numeric arguments must
// parse and be non-negative.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidArgument, "control", "ParseCommand", "empty command")
	}

	verb, args := fields[0], fields[1:]
	switch verb {
	case VerbCreateNamespace:
		if len(args) < 2 {
			return nil, usage("create-namespace domain path")
		}
		return CreateNamespace{Domain: args[0], Path: args[1]}, nil

	case VerbBindChannel:
		if len(args) < 2 {
			return nil, usage("bind-channel source target [bandwidth]")
		}
		cmd := BindChannel{Source: args[0], Target: args[1], Bandwidth: DefaultBandwidth}
		if len(args) >= 3 {
			bandwidth, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return nil, badNumber("bandwidth", args[2])
			}
			cmd.Bandwidth = bandwidth
		}
		return cmd, nil

	case VerbStartSwarm:
		if len(args) < 2 {
			return nil, usage("start-swarm id domain [agents]")
		}
		cmd := StartSwarm{ID: args[0], Domain: args[1], Agents: DefaultAgents}
		if len(args) >= 3 {
			agents, err := strconv.Atoi(args[2])
			if err != nil || agents < 0 {
				return nil, badNumber("agents", args[2])
			}
			cmd.Agents = agents
		}
		return cmd, nil

	case VerbDetectEmergence:
		cmd := DetectEmergence{Domain: "all", Threshold: DefaultThreshold}
		if len(args) >= 1 {
			cmd.Domain = args[0]
		}
		if len(args) >= 2 {
			threshold, err := strconv.ParseFloat(args[1], 64)
			if err != nil || threshold < 0 {
				return nil, badNumber("threshold", args[1])
			}
			cmd.Threshold = threshold
		}
		return cmd, nil

	case VerbAdaptNamespace:
		if len(args) < 1 {
			return nil, usage("adapt-namespace domain [auto|manual]")
		}
		cmd := AdaptNamespace{Domain: args[0], Mode: registry.ModeManual}
		if len(args) >= 2 {
			if args[1] != registry.ModeManual && args[1] != registry.ModeAuto {
				return nil, errors.WrapInvalid(
					fmt.Errorf("unknown adaptation mode %q", args[1]),
					"control", "ParseCommand", "argument validation")
			}
			cmd.Mode = args[1]
		}
		return cmd, nil

	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("unknown command %q", verb),
			"control", "ParseCommand", "command decoding")
	}
}

func usage(text string) error {
	return errors.WrapInvalid(
		fmt.Errorf("usage: %s", text),
		"control", "ParseCommand", "argument validation")
}

func badNumber(name, value string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%s must be a non-negative number, got %q", name, value),
		"control", "ParseCommand", "argument validation")
}
