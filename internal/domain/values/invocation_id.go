package values

import (
	"fmt"

	"github.com/google/uuid"
)

// InvocationID uniquely identifies one tool or resource invocation.
// Every dispatch gets a fresh one so log lines and state mutations of
// concurrent calls can be told apart.
type InvocationID struct {
	value uuid.UUID
}

// NewInvocationID creates a new random invocation ID.
func NewInvocationID() InvocationID {
	return InvocationID{value: uuid.New()}
}

// ParseInvocationID parses a string into an InvocationID.
func ParseInvocationID(s string) (InvocationID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return InvocationID{}, fmt.Errorf("invalid invocation ID: %w", err)
	}
	return InvocationID{value: id}, nil
}

// String returns the string representation.
func (i InvocationID) String() string {
	return i.value.String()
}

// IsZero returns true if this is the zero value.
func (i InvocationID) IsZero() bool {
	return i.value == uuid.Nil
}

// Equals checks if two InvocationIDs are equal.
func (i InvocationID) Equals(other InvocationID) bool {
	return i.value == other.value
}
