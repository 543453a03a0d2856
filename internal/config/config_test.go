package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_REDIS_PASSWORD", "s3cret")
	dir := t.TempDir()

	path := writeConfig(t, `
database:
  path: `+filepath.Join(dir, "data", "velora.db")+`
redis:
  address: localhost:6379
  password: ${TEST_REDIS_PASSWORD}
salon:
  timezone: Europe/Moscow
  step_minutes: 30
waitlist:
  release_policy: expired
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Redis.Password)
	assert.Equal(t, 30, cfg.StepMinutes())
	assert.Equal(t, "expired", cfg.ReleasePolicy())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", loc.String())

	// Load creates the database directory.
	_, err = os.Stat(filepath.Join(dir, "data"))
	assert.NoError(t, err)
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "database:\n  path: "+filepath.Join(dir, "velora.db")+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.StepMinutes())
	assert.Equal(t, 5*time.Minute, cfg.ScheduleCacheTTL())
	assert.Equal(t, "waiting", cfg.ReleasePolicy())

	rate, burst := cfg.NotificationRate()
	assert.Equal(t, float64(10), rate)
	assert.Equal(t, 20, burst)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLocationInvalid(t *testing.T) {
	cfg := &Config{}
	cfg.Salon.Timezone = "Mars/Olympus"
	_, err := cfg.Location()
	assert.Error(t, err)
}
