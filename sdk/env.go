package sdk

import (
	"context"
	"encoding/json"
	"fmt"
)

// Env is the per-invocation view handed to a plugin function: the
// environment variables and secrets the manifest declares for this
// plugin, and the host surface bound to the invoking tool's permissions.
// It is built by the dispatcher and discarded after the call.
type Env struct {
	plugin  string
	vars    map[string]string
	secrets map[string]string
	host    Host
}

// NewEnv builds an Env. Intended for the dispatcher and for tests.
func NewEnv(plugin string, vars, secrets map[string]string, host Host) *Env {
	return &Env{plugin: plugin, vars: vars, secrets: secrets, host: host}
}

// Plugin returns the owning plugin's name.
func (e *Env) Plugin() string {
	return e.plugin
}

// Var returns a declared environment variable.
func (e *Env) Var(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Secret returns a declared secret.
func (e *Env) Secret(name string) (string, bool) {
	v, ok := e.secrets[name]
	return v, ok
}

// Fetch performs a guarded HTTP request.
func (e *Env) Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error) {
	return e.host.Fetch(ctx, req)
}

// Get performs a guarded GET request, a convenience for the common case.
func (e *Env) Get(ctx context.Context, url string, headers map[string]string) (*FetchResponse, error) {
	return e.host.Fetch(ctx, FetchRequest{Method: "GET", URL: url, Headers: headers})
}

// Config reads a host configuration value through the guarded surface.
func (e *Env) Config(ctx context.Context, key string) (string, bool, error) {
	return e.host.GetConfig(ctx, key)
}

// ReadTextFile reads a file through the guarded surface.
func (e *Env) ReadTextFile(ctx context.Context, path string) (string, error) {
	return e.host.ReadTextFile(ctx, path)
}

// WriteTextFile writes a file through the guarded surface.
func (e *Env) WriteTextFile(ctx context.Context, path, content string) error {
	return e.host.WriteTextFile(ctx, path, content)
}

// ReadDir lists a directory through the guarded surface.
func (e *Env) ReadDir(ctx context.Context, path string) ([]DirEntry, error) {
	return e.host.ReadDir(ctx, path)
}

// GetState reads a value from the plugin's private state, unmarshalling
// into v. Returns false when the key has never been set.
func (e *Env) GetState(ctx context.Context, key string, v any) (bool, error) {
	raw, found, err := e.host.GetState(ctx, key)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("state key %q: %w", key, err)
	}
	return true, nil
}

// SetState stores a JSON-serializable value in the plugin's private state.
func (e *Env) SetState(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state key %q: %w", key, err)
	}
	return e.host.SetState(ctx, key, raw)
}

// UpdateState atomically transforms the value under key. fn receives the
// current raw value (nil, false when unset) and returns the replacement;
// the whole cycle runs under the plugin's namespace lock.
func (e *Env) UpdateState(ctx context.Context, key string, fn func(current json.RawMessage, found bool) (any, error)) error {
	return e.host.UpdateState(ctx, key, func(current json.RawMessage, found bool) (json.RawMessage, error) {
		next, err := fn(current, found)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("state key %q: %w", key, err)
		}
		return raw, nil
	})
}

// HTML2Markdown converts HTML to markdown text.
func (e *Env) HTML2Markdown(html string) string {
	return e.host.HTML2Markdown(html)
}
