// Package sdk is the API surface plugin code is written against. A plugin
// is a set of exported functions taking (request, env); the env carries
// the filtered environment, secrets and the capability-checked host
// surface bound to the invoking tool's permission set.
package sdk

import (
	"context"
	"fmt"
)

// ToolFunc is the signature of a plugin tool function.
type ToolFunc func(ctx context.Context, req Request, env *Env) (*ToolResult, error)

// ResourceFunc is the signature of a plugin resource function.
type ResourceFunc func(ctx context.Context, req Request, env *Env) (*ResourceResult, error)

// Plugin bundles a plugin's embedded manifest with its function table.
// The runtime resolves every manifest `function` reference against these
// maps at load time.
type Plugin struct {
	ManifestTOML []byte
	Tools        map[string]ToolFunc
	Resources    map[string]ResourceFunc
}

// Request is the schema-validated input of one tool call. Values follow
// JSON decoding conventions (strings, float64 numbers, bools, []any,
// map[string]any).
type Request map[string]any

// String returns the string value under key.
func (r Request) String(key string) (string, bool) {
	v, ok := r[key].(string)
	return v, ok
}

// StringOr returns the string value under key, or def when absent.
func (r Request) StringOr(key, def string) string {
	if v, ok := r.String(key); ok {
		return v
	}
	return def
}

// Int returns the numeric value under key as an int.
func (r Request) Int(key string) (int, bool) {
	switch v := r[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// IntOr returns the numeric value under key, or def when absent.
func (r Request) IntOr(key string, def int) int {
	if v, ok := r.Int(key); ok {
		return v
	}
	return def
}

// Bool returns the boolean value under key.
func (r Request) Bool(key string) (bool, bool) {
	v, ok := r[key].(bool)
	return v, ok
}

// StringSlice returns the value under key as a slice of strings.
func (r Request) StringSlice(key string) ([]string, bool) {
	raw, ok := r[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// ObjectSlice returns the value under key as a slice of objects.
func (r Request) ObjectSlice(key string) ([]map[string]any, bool) {
	raw, ok := r[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		out = append(out, obj)
	}
	return out, true
}

// Content is one element of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the result shape of a tool call.
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// ResourceContent is one element of a resource result.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// ResourceResult is the result shape of a resource read.
type ResourceResult struct {
	Contents []ResourceContent `json:"contents"`
}

// Text builds a single-text tool result.
func Text(text string) *ToolResult {
	return &ToolResult{Content: []Content{{Type: "text", Text: text}}}
}

// Textf builds a single-text tool result from a format string.
func Textf(format string, args ...any) *ToolResult {
	return Text(fmt.Sprintf(format, args...))
}

// ErrorResult builds an isError tool result.
func ErrorResult(format string, args ...any) *ToolResult {
	return &ToolResult{
		Content: []Content{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
