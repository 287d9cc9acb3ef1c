// Package values defines validated value objects shared across the runtime.
package values

import (
	"fmt"
	"regexp"
	"strings"
)

// Plugin names are lowercase alphanumeric segments joined by single hyphens,
// e.g. "wikipedia", "knowledge-graph".
var pluginNamePattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// PluginName represents a validated plugin identifier.
type PluginName struct {
	value string
}

// NewPluginName creates a PluginName with validation.
func NewPluginName(name string) (PluginName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return PluginName{}, fmt.Errorf("plugin name cannot be empty")
	}
	if !pluginNamePattern.MatchString(name) {
		return PluginName{}, fmt.Errorf("plugin name %q must be lowercase letters, digits and hyphens", name)
	}
	return PluginName{value: name}, nil
}

// MustNewPluginName creates a PluginName or panics.
func MustNewPluginName(name string) PluginName {
	pn, err := NewPluginName(name)
	if err != nil {
		panic(err)
	}
	return pn
}

// String returns the string representation.
func (p PluginName) String() string {
	return p.value
}

// IsEmpty returns true if this is the zero value.
func (p PluginName) IsEmpty() bool {
	return p.value == ""
}

// Equals checks if two plugin names are equal.
func (p PluginName) Equals(other PluginName) bool {
	return p.value == other.value
}
