package treesync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncwell/treesync/errors"
	"github.com/syncwell/treesync/internal/reconcile"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.EqualValues(t, 0, cfg.MaxFileSize, "no size limit by default")
	assert.Equal(t, reconcile.DefaultConcurrency, cfg.Sync.Concurrency)
	assert.NotNil(t, cfg.Ignore.Categories)
	assert.Empty(t, cfg.Ignore.Categories)
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	assert.True(t, filepath.IsAbs(path))
	assert.True(t, strings.HasSuffix(path, filepath.Join("treesync", "config.yaml")))
}

func TestLoadConfig(t *testing.T) {
	writeConfig := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("full file", func(t *testing.T) {
		path := writeConfig(t, `
max_file_size: 104857600
sync:
  concurrency: 10
ignore:
  categories:
    logs: false
    vendor: true
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.EqualValues(t, 104857600, cfg.MaxFileSize)
		assert.Equal(t, 10, cfg.Sync.Concurrency)
		assert.Equal(t, map[string]bool{"logs": false, "vendor": true}, cfg.Ignore.Categories)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := writeConfig(t, "max_file_size: 1024\n")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.EqualValues(t, 1024, cfg.MaxFileSize)
		assert.Equal(t, reconcile.DefaultConcurrency, cfg.Sync.Concurrency,
			"omitted keys keep their defaults")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope.yaml")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "sync: [not: a: mapping\n")

		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("invalid concurrency", func(t *testing.T) {
		path := writeConfig(t, "sync:\n  concurrency: -2\n")

		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidConfig(err))
	})

	t.Run("negative size limit", func(t *testing.T) {
		path := writeConfig(t, "max_file_size: -1\n")

		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidConfig(err))
	})
}
