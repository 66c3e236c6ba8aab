package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg := Load("")

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "linksentry.db", cfg.Database.Path)
	assert.Equal(t, 1000, cfg.Cache.Capacity)
	assert.Equal(t, time.Hour, cfg.Review.ReminderInterval)
	assert.False(t, cfg.Renderer.Enabled)
	assert.Empty(t, cfg.Classifier.Keys())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  addr: ":9090"
cache:
  capacity: 5
classifier:
  apiKeys: "key-a, key-b"
review:
  reminderInterval: 30m
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg := Load(path)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Cache.Capacity)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.Classifier.Keys())
	assert.Equal(t, 30*time.Minute, cfg.Review.ReminderInterval)
	// Untouched sections keep their defaults.
	assert.Equal(t, "linksentry.db", cfg.Database.Path)
	assert.Equal(t, "gpt-4o-mini", cfg.Classifier.Model)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  path: from-file.db\n"), 0o600))

	t.Setenv(databasePathEnv, "from-env.db")
	t.Setenv(chromePathEnv, "/usr/bin/chromium")

	cfg := Load(path)

	assert.Equal(t, "from-env.db", cfg.Database.Path)
	assert.Equal(t, "/usr/bin/chromium", cfg.Renderer.ChromePath)
	assert.True(t, cfg.Renderer.Enabled)
}

func TestClassifierConfig_Keys(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ClassifierConfig{}.Keys())
	assert.Equal(t, []string{"one"}, ClassifierConfig{APIKeys: "one"}.Keys())
	assert.Equal(t, []string{"one", "two"}, ClassifierConfig{APIKeys: " one ,, two "}.Keys())
}
