// Package main implements the entry point for the CogMesh daemon.
// CogMesh is a domain-partitioned adaptive message-transport and
// coordination core: namespaces exchange typed messages over adaptive
// channels, agent swarms coordinate per domain, and recurring cross-domain
// behavior is recorded as emergent patterns.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/c360/cogmesh/config"
	"github.com/c360/cogmesh/control"
	"github.com/c360/cogmesh/gateway"
	"github.com/c360/cogmesh/health"
	"github.com/c360/cogmesh/metric"
	"github.com/c360/cogmesh/registry"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "cogmeshd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if cliCfg.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		return nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	level := cfg.Logging.Level
	if cliCfg.LogLevel != "" {
		level = cliCfg.LogLevel
	}
	logger := setupLogger(level, cliCfg.LogFormat)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		logger.Info("configuration is valid", "path", cliCfg.ConfigPath)
		return nil
	}

	metricsRegistry := metric.NewMetricsRegistry()
	monitor := health.NewMonitor()

	reg := registry.New(
		registry.WithLogger(logger.With("component", "registry")),
		registry.WithMetricsRegistry(metricsRegistry),
		registry.WithAdaptInterval(cfg.Adaptation.Interval.Std()),
	)
	if err := reg.Seed(cfg); err != nil {
		return fmt.Errorf("seed registry: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := reg.Start(ctx); err != nil {
		return fmt.Errorf("start registry: %w", err)
	}
	monitor.UpdateHealthy("registry", "adaptation monitor running")

	// Configured swarms get their agent pools once the context exists.
	for _, swCfg := range cfg.Swarms {
		if err := reg.StartSwarmAgents(ctx, swCfg.ID, swCfg.Agents); err != nil {
			return fmt.Errorf("start swarm %s agents: %w", swCfg.ID, err)
		}
		logger.Info("swarm agents started", "swarm", swCfg.ID, "agents", swCfg.Agents)
	}

	dispatcher := control.NewDispatcher(reg,
		control.WithLogger(logger.With("component", "control")))

	srv, err := gateway.New(cfg.Server.ListenAddr, reg, dispatcher,
		gateway.WithLogger(logger.With("component", "gateway")),
		gateway.WithMetricsRegistry(metricsRegistry),
		gateway.WithHealthMonitor(monitor))
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}
	monitor.UpdateHealthy("gateway", "serving "+srv.Addr())
	logger.Info("cogmesh running",
		"addr", srv.Addr(),
		"domains", len(cfg.Namespaces),
		"channels", len(cfg.Channels))

	<-ctx.Done()
	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout.Std())

	if err := srv.Stop(cfg.Server.ShutdownTimeout.Std()); err != nil {
		logger.Warn("gateway stop failed", "error", err)
	}
	return reg.Shutdown()
}
