package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, int64(42), cfg.Engine.MasterSeed)
	assert.Equal(t, 5000, cfg.Engine.CacheSize)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.MasterSeed = 1234
	cfg.GA.MaxGenerations = 50

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), loaded.Engine.MasterSeed)
	assert.Equal(t, 50, loaded.GA.MaxGenerations)
}

func TestValidateRejectsBadEngineSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.CacheSize = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Engine.NRepeats = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Engine.KPathsMax = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [this is not a map"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}
