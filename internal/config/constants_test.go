package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRuntimeOptionsMissingFileReturnsDefaults(t *testing.T) {
	opts, err := LoadRuntimeOptions(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultRuntimeOptions(), opts)
}

func TestLoadRuntimeOptionsOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pyjox.yaml")
	require.NoError(t, writeFile(path, "max_frame_depth: 50\nwarnings_as_errors: true\n"))

	opts, err := LoadRuntimeOptions(path)
	require.NoError(t, err)
	require.Equal(t, 50, opts.MaxFrameDepth)
	require.True(t, opts.WarningsAsErrors)
	require.Equal(t, DefaultRuntimeOptions().MaxStackSize, opts.MaxStackSize)
}

func TestLoadRuntimeOptionsOverlaysCodeCachePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pyjox.yaml")
	require.NoError(t, writeFile(path, "code_cache_path: /var/lib/pyjox/cache.db\n"))

	opts, err := LoadRuntimeOptions(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/pyjox/cache.db", opts.CodeCachePath)
}

func TestLoadRuntimeOptionsRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pyjox.yaml")
	require.NoError(t, writeFile(path, "max_frame_depth: [this is not an int\n"))

	_, err := LoadRuntimeOptions(path)
	require.Error(t, err)
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
