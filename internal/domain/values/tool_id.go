package values

import (
	"fmt"
	"strings"
)

// ToolID identifies a tool, resource or prompt within one manifest.
// Enforces non-empty, trimmed identifiers.
type ToolID struct {
	value string
}

// NewToolID creates a ToolID with validation.
func NewToolID(id string) (ToolID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ToolID{}, fmt.Errorf("tool ID cannot be empty")
	}
	return ToolID{value: id}, nil
}

// MustNewToolID creates a ToolID or panics.
func MustNewToolID(id string) ToolID {
	tid, err := NewToolID(id)
	if err != nil {
		panic(err)
	}
	return tid
}

// String returns the string representation.
func (t ToolID) String() string {
	return t.value
}

// IsEmpty returns true if this is the zero value.
func (t ToolID) IsEmpty() bool {
	return t.value == ""
}

// Equals checks if two tool IDs are equal.
func (t ToolID) Equals(other ToolID) bool {
	return t.value == other.value
}
