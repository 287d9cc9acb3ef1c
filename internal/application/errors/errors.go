// Package apperrors defines the error taxonomy returned across the plugin
// boundary. Parse errors are fatal at load time; everything else is
// per-invocation and surfaced to the caller as a structured tool error.
package apperrors

import (
	"fmt"
	"time"
)

// Category names the permission class a denied capability check consulted.
type Category string

const (
	// CategoryHost covers network fetches (hosts + urls grants).
	CategoryHost Category = "host"
	// CategoryFileRead covers file and directory reads.
	CategoryFileRead Category = "file_read"
	// CategoryFileWrite covers file writes.
	CategoryFileWrite Category = "file_write"
	// CategoryConfig covers config key access.
	CategoryConfig Category = "config"
)

// ParseError indicates a malformed manifest. It is fatal at install/load
// time: the plugin does not load at all, there is no partial installation.
type ParseError struct {
	Plugin  string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("manifest parse failed for plugin %q: %s: %v", e.Plugin, e.Message, e.Cause)
	}
	return fmt.Sprintf("manifest parse failed for plugin %q: %s", e.Plugin, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// PluginNotFoundError indicates no manifest is loaded under that name.
type PluginNotFoundError struct {
	Plugin string
}

func (e *PluginNotFoundError) Error() string {
	return fmt.Sprintf("plugin not found: %s", e.Plugin)
}

// ToolNotFoundError indicates the manifest has no tool/resource/prompt
// under that ID.
type ToolNotFoundError struct {
	Plugin string
	Tool   string
	Kind   string // "tool", "resource" or "prompt"
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s/%s", e.Kind, e.Plugin, e.Tool)
}

// InvalidInputError reports the first input_schema violation found while
// validating a tool call's input.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: field %q: %s", e.Field, e.Message)
}

// PermissionDeniedError indicates a capability check failed. The guarded
// primitive was never invoked: no socket opened, no file touched.
type PermissionDeniedError struct {
	Category Category
	Target   string // offending URL, path or config key
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied (%s): %s", e.Category, e.Target)
}

// TimeoutError indicates a guarded call exceeded its deadline. Kept
// distinct from PermissionDenied and ToolExecutionError so callers can
// tell a hung upstream from a policy decision.
type TimeoutError struct {
	Target  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s: %s", e.Timeout, e.Target)
}

// ToolExecutionError wraps any error or panic escaping plugin code so raw
// stack traces never cross the plugin boundary.
type ToolExecutionError struct {
	Plugin  string
	Tool    string
	Message string
	Cause   error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s/%s failed: %s", e.Plugin, e.Tool, e.Message)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Cause
}
