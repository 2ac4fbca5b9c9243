package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFile_Defaults(t *testing.T) {
	path := writeConfig(t, "source:\n  user: etl\n")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "etl", cfg.Source.User)
	assert.Equal(t, 3306, cfg.Source.Port)
	assert.Equal(t, "sakila", cfg.Source.Database)
	assert.Equal(t, "analytics.db", cfg.Target.Path)
	assert.Equal(t, 30, cfg.Validation.Days)
	assert.InDelta(t, 0.01, cfg.Validation.Tolerance, 1e-9)
	assert.Equal(t, []string{"customer_count", "film_count"}, cfg.Validation.Critical)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFile_Overrides(t *testing.T) {
	path := writeConfig(t, `
source:
  host: db.internal
  port: 3307
target:
  path: /var/lib/analytics/analytics.db
validation:
  days: 7
  tolerance: 0.05
  critical: []
scheduler:
  enabled: true
  interval: "@every 5m"
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Source.Host)
	assert.Equal(t, 3307, cfg.Source.Port)
	assert.Equal(t, "/var/lib/analytics/analytics.db", cfg.Target.Path)
	assert.Equal(t, 7, cfg.Validation.Days)
	assert.InDelta(t, 0.05, cfg.Validation.Tolerance, 1e-9)
	assert.Empty(t, cfg.Validation.Critical)
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestDateDimRange(t *testing.T) {
	l := LoadConfig{DateDimStart: "2005-01-01", DateDimEnd: "2006-12-31"}
	start, end, err := l.DateDimRange()
	require.NoError(t, err)
	assert.Equal(t, 2005, start.Year())
	assert.Equal(t, 2006, end.Year())

	_, _, err = LoadConfig{DateDimStart: "2006-01-01", DateDimEnd: "2005-01-01"}.DateDimRange()
	assert.Error(t, err)

	_, _, err = LoadConfig{DateDimStart: "not-a-date", DateDimEnd: "2005-01-01"}.DateDimRange()
	assert.Error(t, err)
}

func TestLoadConfigFile_MissingFile(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
