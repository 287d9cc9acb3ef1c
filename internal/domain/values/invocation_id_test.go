package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewInvocationID(t *testing.T) {
	a := NewInvocationID()
	b := NewInvocationID()

	assert.False(t, a.IsZero())
	assert.NotEqual(t, a.String(), b.String())
}

func Test_ParseInvocationID(t *testing.T) {
	id := NewInvocationID()

	parsed, err := ParseInvocationID(id.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equals(id))

	_, err = ParseInvocationID("not-a-uuid")
	assert.Error(t, err)
}
