package main

import (
	"flag"
	"os"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	Validate    bool
	ShowVersion bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("COGMESH_CONFIG", ""),
		"Path to configuration file, empty for built-in defaults (env: COGMESH_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("COGMESH_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error; overrides the config file (env: COGMESH_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("COGMESH_LOG_FORMAT", "text"),
		"Log format: json, text (env: COGMESH_LOG_FORMAT)")

	flag.BoolVar(&cfg.Validate, "validate", false,
		"Validate the configuration and exit")

	flag.BoolVar(&cfg.ShowVersion, "version", false,
		"Print version and exit")

	flag.Parse()
	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
