package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Datron/jilebi/internal/application/ports"
	"github.com/Datron/jilebi/internal/application/services"
	"github.com/Datron/jilebi/internal/infrastructure/config"
	"github.com/Datron/jilebi/internal/infrastructure/hostapi"
	"github.com/Datron/jilebi/internal/infrastructure/registry"
	"github.com/Datron/jilebi/internal/infrastructure/state"
	"github.com/Datron/jilebi/plugins/arxiv"
	"github.com/Datron/jilebi/plugins/github"
	"github.com/Datron/jilebi/plugins/knowledgegraph"
	"github.com/Datron/jilebi/plugins/sequentialthinking"
	"github.com/Datron/jilebi/plugins/wikipedia"
)

// runtime bundles everything a command needs to serve invocations.
type runtime struct {
	cfg        config.HostConfig
	registry   *registry.Registry
	dispatcher *services.Dispatcher
	prompts    *services.PromptRenderer
}

// newRuntime loads the host config and registers the bundled plugins.
// A plugin whose manifest fails to parse aborts startup: parse errors
// are fatal, there is no partial installation.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load(viper.ConfigFileUsed())
	if err != nil {
		return nil, err
	}

	var states ports.StateStore
	if cfg.StateDir != "" {
		states = state.NewFileStore(cfg.StateDir)
	} else {
		states = state.NewMemoryStore()
	}

	host := hostapi.New(states, hostapi.Options{
		FetchTimeout:     cfg.FetchTimeout(),
		MaxResponseBytes: cfg.MaxResponseBytes,
		ConfigValues:     cfg.PluginConfig,
	})

	reg := registry.New()
	for _, p := range []struct {
		name string
		load func() error
	}{
		{"wikipedia", func() error { return reg.Register(wikipedia.New()) }},
		{"github", func() error { return reg.Register(github.New()) }},
		{"arxiv", func() error { return reg.Register(arxiv.New()) }},
		{"knowledge-graph", func() error { return reg.Register(knowledgegraph.New()) }},
		{"sequential-thinking", func() error { return reg.Register(sequentialthinking.New()) }},
	} {
		if err := p.load(); err != nil {
			return nil, fmt.Errorf("loading plugin %s: %w", p.name, err)
		}
	}

	return &runtime{
		cfg:        cfg,
		registry:   reg,
		dispatcher: services.NewDispatcher(reg, host),
		prompts:    services.NewPromptRenderer(reg),
	}, nil
}
