package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Project.Root)
	assert.Greater(t, cfg.Scan.Workers, 0)
	assert.Contains(t, cfg.Scan.Ignore, "**/__pycache__/**")
	assert.Equal(t, "chunks.json", cfg.Output.Snapshot)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codechunk.yaml")
	yaml := `
project:
  root: /srv/code
scan:
  workers: 3
  ignore:
    - "build/**"
output:
  snapshot: out.json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("CODECHUNK_ROOT", "/srv/other")
	t.Setenv("CODECHUNK_WORKERS", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/other", cfg.Project.Root, "env overrides the file")
	assert.Equal(t, 5, cfg.Scan.Workers)
	assert.Equal(t, []string{"build/**"}, cfg.Scan.Ignore)
	assert.Equal(t, "out.json", cfg.Output.Snapshot)
	assert.Equal(t, "codechunk.db", cfg.Output.Database, "unset keys keep defaults")
}

func TestLoad_BadWorkersEnv(t *testing.T) {
	t.Setenv("CODECHUNK_WORKERS", "many")
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
