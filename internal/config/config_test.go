package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Store.Format = "csv"
	cfg.Thresholds.NotableBalance = decimal.RequireFromString("2500.50")
	cfg.Metrics.Textfile = "/tmp/teller.prom"

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "csv", got.Store.Format)
	assert.Equal(t, cfg.Store.Dir, got.Store.Dir)
	assert.True(t, cfg.Thresholds.NotableBalance.Equal(got.Thresholds.NotableBalance))
	assert.Equal(t, 7, got.Security.MinPasswordLength)
	assert.Equal(t, "/tmp/teller.prom", got.Metrics.Textfile)
	assert.Equal(t, cfg.Log, got.Log)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "json", cfg.Store.Format)
	assert.Equal(t, "data", cfg.Store.Dir)
	assert.True(t, cfg.Thresholds.NotableBalance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 7, cfg.Security.MinPasswordLength)
	assert.Empty(t, cfg.Metrics.Textfile)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("store:\n  format: csv\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Store.Format)
	assert.Equal(t, 7, cfg.Security.MinPasswordLength)
	assert.True(t, cfg.Thresholds.NotableBalance.Equal(decimal.NewFromInt(1000)))
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "format: json")
	assert.Contains(t, contents, `notable_balance: "1000"`)
	assert.Contains(t, contents, "min_password_length: 7")
	assert.NotContains(t, contents, "textfile")
}

func TestLoadOrDefault_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvDataDir, "/srv/teller")
	t.Setenv(EnvStoreFormat, "CSV")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := LoadOrDefault(FileName)
	require.NoError(t, err)
	assert.Equal(t, "/srv/teller", cfg.Store.Dir)
	assert.Equal(t, "csv", cfg.Store.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadOrDefault_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TELLER_LOG_FORMAT=json\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv(EnvLogFormat) })

	cfg, err := LoadOrDefault(FileName)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}
