// Package services contains the application services of the runtime: the
// dispatcher that resolves and executes plugin calls, and the prompt
// renderer.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/Datron/jilebi/internal/application/errors"
	"github.com/Datron/jilebi/internal/application/ports"
	"github.com/Datron/jilebi/internal/domain/manifest"
	"github.com/Datron/jilebi/internal/domain/permissions"
	"github.com/Datron/jilebi/internal/domain/values"
	"github.com/Datron/jilebi/internal/infrastructure/hostapi"
	"github.com/Datron/jilebi/sdk"
)

// Dispatcher resolves an incoming tool/resource/prompt call to a manifest
// entry, builds the invocation context and runs the plugin function. It
// performs no retries; retry policy belongs to the individual plugin's
// own HTTP calls.
type Dispatcher struct {
	registry ports.PluginRegistry
	host     *hostapi.Host
}

// NewDispatcher creates a dispatcher over a loaded registry and host
// surface.
func NewDispatcher(registry ports.PluginRegistry, host *hostapi.Host) *Dispatcher {
	return &Dispatcher{registry: registry, host: host}
}

// Invoke executes one tool call. rawEnv is the host's full environment;
// the plugin only ever sees the keys its manifest declares. Routing and
// validation failures come back as typed errors; errors thrown by plugin
// code come back as a ToolExecutionError.
func (d *Dispatcher) Invoke(ctx context.Context, plugin, tool string, input sdk.Request, rawEnv map[string]string) (*sdk.ToolResult, error) {
	m, ok := d.registry.Manifest(plugin)
	if !ok {
		return nil, &apperrors.PluginNotFoundError{Plugin: plugin}
	}
	def := m.Tool(tool)
	if def == nil {
		return nil, &apperrors.ToolNotFoundError{Plugin: plugin, Tool: tool, Kind: "tool"}
	}

	if err := validateInput(def.InputSchema, input); err != nil {
		return nil, err
	}

	fn, ok := d.registry.ToolFunc(plugin, def.Function)
	if !ok {
		// Unreachable after load-time function resolution; kept as a
		// routing error rather than a panic.
		return nil, &apperrors.ToolNotFoundError{Plugin: plugin, Tool: tool, Kind: "tool"}
	}

	env := d.buildEnv(m, def.Permissions, rawEnv)
	id := values.NewInvocationID()
	started := time.Now()
	slog.DebugContext(ctx, "invoking tool",
		"invocation", id.String(), "plugin", plugin, "tool", tool)

	result, err := d.callTool(ctx, fn, input, env)
	if err != nil {
		slog.WarnContext(ctx, "tool failed",
			"invocation", id.String(), "plugin", plugin, "tool", tool,
			"duration", time.Since(started), "error", err)
		return nil, wrapExecutionError(plugin, tool, err)
	}

	slog.DebugContext(ctx, "tool completed",
		"invocation", id.String(), "plugin", plugin, "tool", tool,
		"duration", time.Since(started))
	return result, nil
}

// ReadResource executes one resource read.
func (d *Dispatcher) ReadResource(ctx context.Context, plugin, resource string, input sdk.Request, rawEnv map[string]string) (*sdk.ResourceResult, error) {
	m, ok := d.registry.Manifest(plugin)
	if !ok {
		return nil, &apperrors.PluginNotFoundError{Plugin: plugin}
	}
	def := m.Resource(resource)
	if def == nil {
		return nil, &apperrors.ToolNotFoundError{Plugin: plugin, Tool: resource, Kind: "resource"}
	}
	fn, ok := d.registry.ResourceFunc(plugin, def.Function)
	if !ok {
		return nil, &apperrors.ToolNotFoundError{Plugin: plugin, Tool: resource, Kind: "resource"}
	}

	env := d.buildEnv(m, def.Permissions, rawEnv)
	result, err := d.callResource(ctx, fn, input, env)
	if err != nil {
		return nil, wrapExecutionError(plugin, resource, err)
	}
	return result, nil
}

// Dispatch runs Invoke and renders any per-invocation error into the
// uniform isError tool result, so transports and plugin authors never
// repeat the try/catch-and-serialize pattern themselves. A denied
// capability stays distinguishable from an empty upstream result by its
// message prefix.
func (d *Dispatcher) Dispatch(ctx context.Context, plugin, tool string, input sdk.Request, rawEnv map[string]string) *sdk.ToolResult {
	result, err := d.Invoke(ctx, plugin, tool, input, rawEnv)
	if err != nil {
		return sdk.ErrorResult("%s", err.Error())
	}
	return result
}

// Call identifies one invocation of InvokeAll.
type Call struct {
	Plugin string
	Tool   string
	Input  sdk.Request
}

// InvokeAll dispatches several calls concurrently, each with its own
// invocation context, and returns the results in call order. One call's
// failure never affects another: failures are rendered per slot.
func (d *Dispatcher) InvokeAll(ctx context.Context, calls []Call, rawEnv map[string]string, parallelism int) []*sdk.ToolResult {
	if parallelism <= 0 {
		parallelism = 4
	}
	results := make([]*sdk.ToolResult, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = d.Dispatch(gctx, call.Plugin, call.Tool, call.Input, rawEnv)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures land in results
	return results
}

// HostEnviron snapshots the process environment into the raw map Invoke
// expects.
func HostEnviron() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// buildEnv filters rawEnv down to the manifest's declared env and secret
// keys and binds the entry's permission set to a fresh surface.
func (d *Dispatcher) buildEnv(m *manifest.Manifest, perms permissions.Set, rawEnv map[string]string) *sdk.Env {
	vars := make(map[string]string, len(m.Env))
	for name, decl := range m.Env {
		if v, ok := rawEnv[name]; ok {
			vars[name] = v
		} else if decl.Default != "" {
			vars[name] = decl.Default
		}
	}
	secrets := make(map[string]string, len(m.Secrets))
	for name := range m.Secrets {
		if v, ok := rawEnv[name]; ok {
			secrets[name] = v
		}
	}
	surface := d.host.Bind(m.Name.String(), perms)
	return sdk.NewEnv(m.Name.String(), vars, secrets, surface)
}

// callTool invokes the plugin function, converting panics into errors so
// one misbehaving plugin cannot take down the dispatcher.
func (d *Dispatcher) callTool(ctx context.Context, fn sdk.ToolFunc, input sdk.Request, env *sdk.Env) (result *sdk.ToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin panicked: %v", r)
		}
	}()
	return fn(ctx, input, env)
}

func (d *Dispatcher) callResource(ctx context.Context, fn sdk.ResourceFunc, input sdk.Request, env *sdk.Env) (result *sdk.ResourceResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin panicked: %v", r)
		}
	}()
	return fn(ctx, input, env)
}

// wrapExecutionError keeps the typed guard errors intact and wraps
// everything else so raw plugin errors never cross the boundary bare.
func wrapExecutionError(plugin, tool string, err error) error {
	var denied *apperrors.PermissionDeniedError
	var timeout *apperrors.TimeoutError
	if errors.As(err, &denied) || errors.As(err, &timeout) {
		return err
	}
	return &apperrors.ToolExecutionError{
		Plugin:  plugin,
		Tool:    tool,
		Message: err.Error(),
		Cause:   err,
	}
}

// validateInput checks input against the tool's compiled input_schema and
// reports the first violation.
func validateInput(schema *jsonschema.Schema, input sdk.Request) error {
	if schema == nil {
		return nil
	}
	doc := map[string]any(input)
	if doc == nil {
		doc = map[string]any{}
	}
	err := schema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &apperrors.InvalidInputError{Field: "", Message: err.Error()}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	return &apperrors.InvalidInputError{
		Field:   fieldFromViolation(leaf),
		Message: leaf.Message,
	}
}

// fieldFromViolation derives the offending field name from a schema
// violation: the instance location when the value itself is wrong, or the
// first property named in a "missing properties" message.
func fieldFromViolation(v *jsonschema.ValidationError) string {
	if loc := strings.Trim(v.InstanceLocation, "/"); loc != "" {
		return strings.ReplaceAll(loc, "/", ".")
	}
	if i := strings.Index(v.Message, "'"); i >= 0 {
		rest := v.Message[i+1:]
		if j := strings.Index(rest, "'"); j >= 0 {
			return rest[:j]
		}
	}
	return ""
}
