// Package registry loads plugins: it parses each plugin's embedded
// manifest, resolves manifest function references against the plugin's
// function table, and serves lookups to the dispatcher. A registry is
// populated at startup and read-only afterwards.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	apperrors "github.com/Datron/jilebi/internal/application/errors"
	"github.com/Datron/jilebi/internal/application/ports"
	"github.com/Datron/jilebi/internal/domain/manifest"
	"github.com/Datron/jilebi/sdk"
)

type entry struct {
	manifest  *manifest.Manifest
	tools     map[string]sdk.ToolFunc
	resources map[string]sdk.ResourceFunc
}

// Registry is the in-process plugin registry.
type Registry struct {
	plugins map[string]*entry
}

var _ ports.PluginRegistry = (*Registry)(nil)

// New creates an empty registry.
func New() *Registry {
	return &Registry{plugins: make(map[string]*entry)}
}

// Register loads one plugin. Any failure is a fatal ParseError: the
// plugin does not load at all, there is no partial installation.
func (r *Registry) Register(p sdk.Plugin) error {
	m, err := manifest.Load(p.ManifestTOML)
	if err != nil {
		return &apperrors.ParseError{Message: "invalid manifest", Cause: err}
	}

	name := m.Name.String()
	if _, exists := r.plugins[name]; exists {
		return &apperrors.ParseError{
			Plugin:  name,
			Message: "plugin already registered",
		}
	}

	toolFuncs := make(map[string]bool, len(p.Tools))
	for fn := range p.Tools {
		toolFuncs[fn] = true
	}
	resourceFuncs := make(map[string]bool, len(p.Resources))
	for fn := range p.Resources {
		resourceFuncs[fn] = true
	}
	if err := m.CheckFunctions(toolFuncs, resourceFuncs); err != nil {
		return &apperrors.ParseError{Plugin: name, Message: "unresolved function reference", Cause: err}
	}

	r.plugins[name] = &entry{
		manifest:  m,
		tools:     p.Tools,
		resources: p.Resources,
	}
	slog.Debug("plugin registered",
		"plugin", name, "version", m.Version,
		"tools", len(m.Tools), "resources", len(m.Resources), "prompts", len(m.Prompts))
	return nil
}

// MustRegister registers a plugin or panics. Bundled plugins ship
// alongside the runtime, so a load failure is a programming error.
func (r *Registry) MustRegister(p sdk.Plugin) {
	if err := r.Register(p); err != nil {
		panic(fmt.Sprintf("failed to register bundled plugin: %v", err))
	}
}

// Manifest returns the loaded manifest for a plugin name.
func (r *Registry) Manifest(plugin string) (*manifest.Manifest, bool) {
	e, ok := r.plugins[plugin]
	if !ok {
		return nil, false
	}
	return e.manifest, true
}

// Manifests returns every loaded manifest, sorted by plugin name.
func (r *Registry) Manifests() []*manifest.Manifest {
	out := make([]*manifest.Manifest, 0, len(r.plugins))
	for _, e := range r.plugins {
		out = append(out, e.manifest)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name.String() < out[j].Name.String()
	})
	return out
}

// ToolFunc resolves a manifest function reference for a plugin.
func (r *Registry) ToolFunc(plugin, function string) (sdk.ToolFunc, bool) {
	e, ok := r.plugins[plugin]
	if !ok {
		return nil, false
	}
	fn, ok := e.tools[function]
	return fn, ok
}

// ResourceFunc resolves a manifest resource function reference.
func (r *Registry) ResourceFunc(plugin, function string) (sdk.ResourceFunc, bool) {
	e, ok := r.plugins[plugin]
	if !ok {
		return nil, false
	}
	fn, ok := e.resources[function]
	return fn, ok
}
