package hostapi

import (
	"context"
	"encoding/json"
	"log/slog"

	apperrors "github.com/Datron/jilebi/internal/application/errors"
	"github.com/Datron/jilebi/internal/domain/permissions"
)

// State calls are scoped automatically to the invoking plugin's namespace.
// They are not gated by the manifest: state is always private to the
// owning plugin, and the namespace key never leaves the host's control,
// so plugin A cannot name plugin B's namespace at all.

// GetConfig reads a host configuration value after checking the key
// against the tool's config_keys grant.
func (s *Surface) GetConfig(ctx context.Context, key string) (string, bool, error) {
	if !permissions.ConfigKeyAllowed(s.perms, key) {
		slog.WarnContext(ctx, "config read denied", "plugin", s.plugin, "key", key)
		return "", false, &apperrors.PermissionDeniedError{
			Category: apperrors.CategoryConfig,
			Target:   key,
		}
	}
	v, ok := s.host.config[key]
	return v, ok, nil
}

// GetState reads a value from the plugin's private state.
func (s *Surface) GetState(ctx context.Context, key string) (json.RawMessage, bool, error) {
	return s.host.states.Get(ctx, s.plugin, key)
}

// SetState stores a value in the plugin's private state.
func (s *Surface) SetState(ctx context.Context, key string, value json.RawMessage) error {
	return s.host.states.Set(ctx, s.plugin, key, value)
}

// UpdateState atomically transforms the value under key. The callback
// runs under the plugin's namespace lock, closing the lost-update window
// of a get-then-set cycle issued by concurrent invocations.
func (s *Surface) UpdateState(ctx context.Context, key string, fn func(current json.RawMessage, found bool) (json.RawMessage, error)) error {
	return s.host.states.Update(ctx, s.plugin, key, fn)
}

// HTML2Markdown converts HTML to markdown. Pure text transform, no
// capability check.
func (s *Surface) HTML2Markdown(html string) string {
	return s.host.html2md(html)
}
