package apperrors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "parse error with cause",
			err:  &ParseError{Plugin: "wiki", Message: "invalid manifest", Cause: errors.New("bad toml")},
			want: `manifest parse failed for plugin "wiki": invalid manifest: bad toml`,
		},
		{
			name: "parse error without cause",
			err:  &ParseError{Plugin: "wiki", Message: "plugin already registered"},
			want: `manifest parse failed for plugin "wiki": plugin already registered`,
		},
		{
			name: "plugin not found",
			err:  &PluginNotFoundError{Plugin: "wiki"},
			want: "plugin not found: wiki",
		},
		{
			name: "tool not found",
			err:  &ToolNotFoundError{Plugin: "wiki", Tool: "search", Kind: "tool"},
			want: "tool not found: wiki/search",
		},
		{
			name: "resource not found",
			err:  &ToolNotFoundError{Plugin: "wiki", Tool: "history", Kind: "resource"},
			want: "resource not found: wiki/history",
		},
		{
			name: "invalid input",
			err:  &InvalidInputError{Field: "query", Message: "missing properties: 'query'"},
			want: `invalid input: field "query": missing properties: 'query'`,
		},
		{
			name: "permission denied",
			err:  &PermissionDeniedError{Category: CategoryHost, Target: "https://evil.example.com/"},
			want: "permission denied (host): https://evil.example.com/",
		},
		{
			name: "timeout",
			err:  &TimeoutError{Target: "https://slow.example.com/", Timeout: 30 * time.Second},
			want: "timed out after 30s: https://slow.example.com/",
		},
		{
			name: "tool execution",
			err:  &ToolExecutionError{Plugin: "wiki", Tool: "search", Message: "boom"},
			want: "tool wiki/search failed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func Test_Unwrap(t *testing.T) {
	cause := errors.New("root cause")

	assert.ErrorIs(t, &ParseError{Message: "m", Cause: cause}, cause)
	assert.ErrorIs(t, &ToolExecutionError{Message: "m", Cause: cause}, cause)

	wrapped := fmt.Errorf("outer: %w", &PermissionDeniedError{Category: CategoryFileRead, Target: "/etc/passwd"})
	var denied *PermissionDeniedError
	assert.ErrorAs(t, wrapped, &denied)
	assert.Equal(t, CategoryFileRead, denied.Category)
}
