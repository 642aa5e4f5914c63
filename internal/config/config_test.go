package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every optional input at an empty temp dir so the caller's
// home directory and environment never leak into a test.
func isolate(t *testing.T) LoadOptions {
	t.Helper()
	for _, key := range []string{
		"CADENCE_STORE_BACKEND", "CADENCE_STORE_PATH", "CADENCE_STORE_FORMAT",
		"CADENCE_RECURRENCE_HORIZON_YEARS", "CADENCE_RECURRENCE_INITIAL_STATUS",
		"CADENCE_RECURRENCE_TIMEZONE",
		"CADENCE_LOG_USE_CASES", "CADENCE_LOG_FORMAT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	dir := t.TempDir()
	return LoadOptions{HomeDir: dir, EnvFile: filepath.Join(dir, "missing.env")}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoad_Defaults(t *testing.T) {
	opts := isolate(t)

	cfg, err := Load(opts)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, filepath.Join(opts.HomeDir, ".cadence", "cadence.db"), cfg.Store.Path)
	assert.Equal(t, 3, cfg.Recurrence.HorizonYears)
	assert.Equal(t, "planned", cfg.Recurrence.InitialStatus)
	assert.False(t, cfg.Log.UseCases)
	assert.Equal(t, "text", cfg.Log.Format)

	p := cfg.Policy()
	assert.Equal(t, 3, p.HorizonYears)
	assert.Equal(t, domain.TaskPlanned, p.InitialStatus)
	assert.Equal(t, time.Local, p.Location)
}

func TestLoad_EnvOverrides(t *testing.T) {
	opts := isolate(t)
	t.Setenv("CADENCE_STORE_BACKEND", "file")
	t.Setenv("CADENCE_STORE_FORMAT", "yaml")
	t.Setenv("CADENCE_RECURRENCE_HORIZON_YEARS", "1")
	t.Setenv("CADENCE_LOG_USE_CASES", "true")

	cfg, err := Load(opts)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, filepath.Join(opts.HomeDir, ".cadence", "tasks.yaml"), cfg.Store.Path)
	assert.Equal(t, 1, cfg.Recurrence.HorizonYears)
	assert.True(t, cfg.Log.UseCases)
}

func TestLoad_HomeConfigFile(t *testing.T) {
	opts := isolate(t)
	writeFile(t, filepath.Join(opts.HomeDir, ".cadence", "config.yaml"), `
store:
  backend: file
  path: /tmp/cadence/tasks.json
recurrence:
  initial_status: in_progress
log:
  format: json
`)

	cfg, err := Load(opts)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "/tmp/cadence/tasks.json", cfg.Store.Path)
	assert.Equal(t, domain.TaskInProgress, cfg.Policy().InitialStatus)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Recurrence.HorizonYears, "unset keys keep defaults")
}

func TestLoad_EnvBeatsConfigFile(t *testing.T) {
	opts := isolate(t)
	writeFile(t, filepath.Join(opts.HomeDir, ".cadence", "config.yaml"), "recurrence:\n  horizon_years: 5\n")
	t.Setenv("CADENCE_RECURRENCE_HORIZON_YEARS", "2")

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Recurrence.HorizonYears)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	opts := isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, "store:\n  path: /data/tasks.db\n")
	opts.ConfigFile = path

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, "/data/tasks.db", cfg.Store.Path)
}

func TestLoad_ExplicitConfigFileMustExist(t *testing.T) {
	opts := isolate(t)
	opts.ConfigFile = filepath.Join(opts.HomeDir, "nope.yaml")

	_, err := Load(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoad_DotEnvFile(t *testing.T) {
	opts := isolate(t)
	opts.EnvFile = filepath.Join(opts.HomeDir, ".env")
	writeFile(t, opts.EnvFile, "CADENCE_LOG_FORMAT=json\n")
	t.Cleanup(func() { _ = os.Unsetenv("CADENCE_LOG_FORMAT") })

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	opts := isolate(t)
	t.Setenv("CADENCE_STORE_BACKEND", "postgres")
	t.Setenv("CADENCE_RECURRENCE_HORIZON_YEARS", "0")
	t.Setenv("CADENCE_RECURRENCE_INITIAL_STATUS", "done")

	_, err := Load(opts)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "store.backend")
	assert.Contains(t, msg, "recurrence.horizon_years")
	assert.Contains(t, msg, "recurrence.initial_status")
}

func TestLoad_Timezone(t *testing.T) {
	opts := isolate(t)
	t.Setenv("CADENCE_RECURRENCE_TIMEZONE", "Europe/Bucharest")

	cfg, err := Load(opts)
	if err != nil && strings.Contains(err.Error(), "recurrence.timezone") {
		t.Skipf("tzdata unavailable: %v", err)
	}
	require.NoError(t, err)
	assert.Equal(t, "Europe/Bucharest", cfg.Policy().Location.String())
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	opts := isolate(t)
	t.Setenv("CADENCE_RECURRENCE_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recurrence.timezone")
}
