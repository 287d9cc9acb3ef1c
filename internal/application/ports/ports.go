// Package ports defines the interfaces the application layer depends on,
// implemented by infrastructure.
package ports

import (
	"context"
	"encoding/json"

	"github.com/Datron/jilebi/internal/domain/manifest"
	"github.com/Datron/jilebi/sdk"
)

// StateStore is the per-plugin key/value store behind getState/setState.
// Implementations must isolate namespaces from each other and serialize
// Update cycles within one namespace so concurrent read-modify-write
// calls cannot lose updates.
type StateStore interface {
	Get(ctx context.Context, namespace, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, namespace, key string, value json.RawMessage) error
	Update(ctx context.Context, namespace, key string, fn func(current json.RawMessage, found bool) (json.RawMessage, error)) error
}

// PluginRegistry resolves loaded plugins and their function tables.
// Registries are populated at load time and read-only afterwards, so they
// may be shared freely between concurrent invocations.
type PluginRegistry interface {
	// Manifest returns the loaded manifest for a plugin name.
	Manifest(plugin string) (*manifest.Manifest, bool)
	// Manifests returns every loaded manifest.
	Manifests() []*manifest.Manifest
	// ToolFunc resolves a manifest function reference to the plugin's
	// registered tool function.
	ToolFunc(plugin, function string) (sdk.ToolFunc, bool)
	// ResourceFunc resolves a manifest function reference to the
	// plugin's registered resource function.
	ResourceFunc(plugin, function string) (sdk.ResourceFunc, bool)
}
