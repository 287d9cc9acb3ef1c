// Package config loads the host runtime configuration file. Plugin
// manifests never live here; this is the embedder's knobs for the
// mediation layer itself.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

// HostConfig holds the runtime settings of the mediation layer.
type HostConfig struct {
	// StateDir is where the file-backed state store keeps per-plugin
	// documents. Empty means in-memory state only.
	StateDir string `yaml:"state_dir"`
	// FetchTimeoutSeconds bounds every guarded fetch.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`
	// MaxResponseBytes caps fetched response bodies.
	MaxResponseBytes int64 `yaml:"max_response_bytes"`
	// InvokeParallelism limits concurrent invocations of batch calls.
	InvokeParallelism int `yaml:"invoke_parallelism"`
	// PluginConfig holds the values plugins may read when their manifest
	// declares the key under config_keys.
	PluginConfig map[string]string `yaml:"plugin_config"`
}

// Default returns the built-in configuration.
func Default() HostConfig {
	return HostConfig{
		FetchTimeoutSeconds: 30,
		MaxResponseBytes:    10 * 1024 * 1024,
		InvokeParallelism:   4,
	}
}

// FetchTimeout returns the fetch timeout as a duration.
func (c HostConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// Load reads a YAML config file, filling unset fields with defaults. A
// missing file yields the defaults without error.
func Load(path string) (HostConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.FetchTimeoutSeconds <= 0 {
		cfg.FetchTimeoutSeconds = Default().FetchTimeoutSeconds
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = Default().MaxResponseBytes
	}
	if cfg.InvokeParallelism <= 0 {
		cfg.InvokeParallelism = Default().InvokeParallelism
	}
	return cfg, nil
}

// DefaultPath returns the conventional config location,
// $HOME/.jilebi/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".jilebi", "config.yaml")
}
