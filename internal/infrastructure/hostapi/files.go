package hostapi

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	apperrors "github.com/Datron/jilebi/internal/application/errors"
	"github.com/Datron/jilebi/internal/domain/permissions"
	"github.com/Datron/jilebi/sdk"
)

// ReadTextFile reads a file after checking it against the tool's
// read_files/read_dirs grants.
func (s *Surface) ReadTextFile(ctx context.Context, path string) (string, error) {
	if !permissions.PathAllowed(s.perms, path, permissions.ModeRead) {
		slog.WarnContext(ctx, "file read denied", "plugin", s.plugin, "path", path)
		return "", &apperrors.PermissionDeniedError{
			Category: apperrors.CategoryFileRead,
			Target:   path,
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteTextFile writes a file after checking it against the tool's
// write_files/write_dirs grants.
func (s *Surface) WriteTextFile(ctx context.Context, path, content string) error {
	if !permissions.PathAllowed(s.perms, path, permissions.ModeWrite) {
		slog.WarnContext(ctx, "file write denied", "plugin", s.plugin, "path", path)
		return &apperrors.PermissionDeniedError{
			Category: apperrors.CategoryFileWrite,
			Target:   path,
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadDir lists a directory after checking it against the tool's read
// grants.
func (s *Surface) ReadDir(ctx context.Context, path string) ([]sdk.DirEntry, error) {
	if !permissions.PathAllowed(s.perms, path, permissions.ModeRead) {
		slog.WarnContext(ctx, "dir read denied", "plugin", s.plugin, "path", path)
		return nil, &apperrors.PermissionDeniedError{
			Category: apperrors.CategoryFileRead,
			Target:   path,
		}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	out := make([]sdk.DirEntry, 0, len(entries))
	for _, e := range entries {
		entry := sdk.DirEntry{Name: e.Name(), IsDir: e.IsDir()}
		if info, err := e.Info(); err == nil {
			entry.Size = info.Size()
		}
		out = append(out, entry)
	}
	return out, nil
}
