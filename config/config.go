// Package config loads and validates the mesh configuration: the seed
// topology of namespaces, channels, and swarms, adaptation tuning, and the
// gateway server settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/cogmesh/errors"
)

// Defaults applied where the file leaves settings out.
const (
	DefaultListenAddr       = ":8420"
	DefaultShutdownTimeout  = Duration(10 * time.Second)
	DefaultAdaptInterval    = Duration(5 * time.Second)
	DefaultChannelBandwidth = 1000
	DefaultSwarmAgents      = 3
	DefaultCoordCapacity    = 1000
	DefaultLogLevel         = "info"
)

// Duration decodes from the usual Go duration syntax ("250ms", "30s");
// yaml.v3 has no native handling for time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Adaptation modes for a namespace.
const (
	ModeManual = "manual"
	ModeAuto   = "auto"
)

// Config is the complete mesh configuration.
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Adaptation AdaptationConfig  `yaml:"adaptation"`
	Logging    LoggingConfig     `yaml:"logging"`
	Namespaces []NamespaceConfig `yaml:"namespaces"`
	Channels   []ChannelConfig   `yaml:"channels"`
	Swarms     []SwarmConfig     `yaml:"swarms"`
}

// ServerConfig holds the gateway settings.
type ServerConfig struct {
	ListenAddr      string   `yaml:"listen_addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// AdaptationConfig tunes the background adaptation monitor.
type AdaptationConfig struct {
	Interval Duration `yaml:"interval"`
}

// LoggingConfig selects the log level (debug, info, warn, error).
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// NamespaceConfig seeds one cognitive namespace.
type NamespaceConfig struct {
	Domain   string `yaml:"domain"`
	RootPath string `yaml:"root_path"`
	Mode     string `yaml:"mode"` // manual or auto; manual when empty
}

// ChannelConfig seeds one inter-domain channel.
type ChannelConfig struct {
	Source    string `yaml:"source"`
	Target    string `yaml:"target"`
	Bandwidth uint64 `yaml:"bandwidth"`
}

// SwarmConfig seeds one agent swarm.
type SwarmConfig struct {
	ID            string `yaml:"id"`
	Domain        string `yaml:"domain"`
	Agents        int    `yaml:"agents"`
	CoordCapacity uint64 `yaml:"coord_capacity"`
}

// DefaultConfig returns the stock city topology: four domains and the four
// inter-domain channels they ship with.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      DefaultListenAddr,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Adaptation: AdaptationConfig{
			Interval: DefaultAdaptInterval,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
		Namespaces: []NamespaceConfig{
			{Domain: "transportation", RootPath: "/cognitive-cities/domains/transportation", Mode: ModeAuto},
			{Domain: "energy", RootPath: "/cognitive-cities/domains/energy", Mode: ModeAuto},
			{Domain: "governance", RootPath: "/cognitive-cities/domains/governance", Mode: ModeAuto},
			{Domain: "environment", RootPath: "/cognitive-cities/domains/environment", Mode: ModeAuto},
		},
		Channels: []ChannelConfig{
			{Source: "transportation", Target: "energy", Bandwidth: 500},
			{Source: "transportation", Target: "governance", Bandwidth: 300},
			{Source: "energy", Target: "environment", Bandwidth: 400},
			{Source: "governance", Target: "environment", Bandwidth: 200},
		},
	}
}

// Load reads the YAML file at path, applies defaults, and validates. An
// empty path returns the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Load", "file read")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Load", "yaml decode")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills unset fields in place.
func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Adaptation.Interval <= 0 {
		c.Adaptation.Interval = DefaultAdaptInterval
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	for i := range c.Namespaces {
		if c.Namespaces[i].Mode == "" {
			c.Namespaces[i].Mode = ModeManual
		}
	}
	for i := range c.Channels {
		if c.Channels[i].Bandwidth == 0 {
			c.Channels[i].Bandwidth = DefaultChannelBandwidth
		}
	}
	for i := range c.Swarms {
		if c.Swarms[i].Agents <= 0 {
			c.Swarms[i].Agents = DefaultSwarmAgents
		}
		if c.Swarms[i].CoordCapacity == 0 {
			c.Swarms[i].CoordCapacity = DefaultCoordCapacity
		}
	}
}

// Validate checks the configuration for internal consistency: every channel
// endpoint and swarm domain must name a configured namespace, and domains
// must be unique.
func (c *Config) Validate() error {
	domains := make(map[string]struct{}, len(c.Namespaces))
	for _, ns := range c.Namespaces {
		if ns.Domain == "" {
			return errors.WrapInvalid(errors.ErrEmptyDomain, "Config", "Validate", "namespace check")
		}
		if _, dup := domains[ns.Domain]; dup {
			return errors.WrapInvalid(
				fmt.Errorf("duplicate namespace %q", ns.Domain),
				"Config", "Validate", "namespace check")
		}
		if ns.Mode != ModeManual && ns.Mode != ModeAuto {
			return errors.WrapInvalid(
				fmt.Errorf("namespace %q: unknown mode %q", ns.Domain, ns.Mode),
				"Config", "Validate", "namespace check")
		}
		domains[ns.Domain] = struct{}{}
	}

	for _, ch := range c.Channels {
		if _, ok := domains[ch.Source]; !ok {
			return errors.WrapInvalid(
				fmt.Errorf("channel %s-%s: unknown source namespace", ch.Source, ch.Target),
				"Config", "Validate", "channel check")
		}
		if _, ok := domains[ch.Target]; !ok {
			return errors.WrapInvalid(
				fmt.Errorf("channel %s-%s: unknown target namespace", ch.Source, ch.Target),
				"Config", "Validate", "channel check")
		}
	}

	swarmIDs := make(map[string]struct{}, len(c.Swarms))
	for _, sw := range c.Swarms {
		if sw.ID == "" {
			return errors.WrapInvalid(
				fmt.Errorf("swarm in domain %q: empty id", sw.Domain),
				"Config", "Validate", "swarm check")
		}
		if _, dup := swarmIDs[sw.ID]; dup {
			return errors.WrapInvalid(
				fmt.Errorf("duplicate swarm %q", sw.ID),
				"Config", "Validate", "swarm check")
		}
		if _, ok := domains[sw.Domain]; !ok {
			return errors.WrapInvalid(
				fmt.Errorf("swarm %q: unknown domain %q", sw.ID, sw.Domain),
				"Config", "Validate", "swarm check")
		}
		swarmIDs[sw.ID] = struct{}{}
	}

	return nil
}
