package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func Test_Load_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout())
}

func Test_Load_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
state_dir: /var/lib/jilebi
fetch_timeout_seconds: 10
max_response_bytes: 1024
invoke_parallelism: 8
plugin_config:
  editor.theme: dark
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/jilebi", cfg.StateDir)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout())
	assert.Equal(t, int64(1024), cfg.MaxResponseBytes)
	assert.Equal(t, 8, cfg.InvokeParallelism)
	assert.Equal(t, "dark", cfg.PluginConfig["editor.theme"])
}

func Test_Load_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("state_dir: /data/state\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/state", cfg.StateDir)
	assert.Equal(t, Default().FetchTimeoutSeconds, cfg.FetchTimeoutSeconds)
	assert.Equal(t, Default().MaxResponseBytes, cfg.MaxResponseBytes)
}

func Test_Load_ClampsNonPositiveValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fetch_timeout_seconds: -1
max_response_bytes: 0
invoke_parallelism: -5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func Test_Load_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("state_dir: [unclosed"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}
