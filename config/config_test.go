package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.IsDebugEnabled())
	assert.Equal(t, 10*time.Millisecond, cfg.Scheduler.PollInterval)
	assert.Equal(t, 1024, cfg.Scheduler.QueueCapacity)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty app name", func(c *Config) { c.App.Name = "" }, ErrInvalidAppName},
		{"bad environment", func(c *Config) { c.App.Environment = "lab" }, ErrInvalidEnvironment},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, ErrInvalidLogLevel},
		{"zero poll interval", func(c *Config) { c.Scheduler.PollInterval = 0 }, ErrInvalidPollInterval},
		{"zero queue capacity", func(c *Config) { c.Scheduler.QueueCapacity = 0 }, ErrInvalidQueueCapacity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tc.wantErr)
		})
	}
}

const sampleYAML = `
app:
  name: volley
  environment: production
log:
  level: warn
  format: json
  categories:
    signals: false
scheduler:
  poll_interval: 5ms
  queue_capacity: 256
custom:
  rounds: 20
`

func TestLoadFromReaderMergesOverDefaults(t *testing.T) {
	cfg, err := NewLoader().LoadFromReader(strings.NewReader(sampleYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "volley", cfg.App.Name)
	assert.Equal(t, EnvProduction, cfg.App.Environment)
	assert.Equal(t, LogLevelWarn, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, false, cfg.Log.Categories["signals"])
	assert.Equal(t, 5*time.Millisecond, cfg.Scheduler.PollInterval)
	assert.Equal(t, 256, cfg.Scheduler.QueueCapacity)
	assert.Equal(t, 20, cfg.Custom["rounds"])

	// Fields the file omits keep their defaults.
	assert.Equal(t, "1.0.0", cfg.App.Version)
	assert.Equal(t, "stdout", cfg.Log.Output)
}

func TestLoadFromReaderJSON(t *testing.T) {
	doc := `{"app": {"name": "volley"}, "log": {"level": "info"}}`
	cfg, err := NewLoader().LoadFromReader(strings.NewReader(doc), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "volley", cfg.App.Name)
	assert.Equal(t, LogLevelInfo, cfg.Log.Level)
}

func TestLoadFromReaderRejectsInvalid(t *testing.T) {
	doc := "log:\n  level: verbose\n"
	_, err := NewLoader().LoadFromReader(strings.NewReader(doc), FormatYAML)
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gosdl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := NewLoader().LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "volley", cfg.App.Name)

	_, err = NewLoader().LoadFromFile(filepath.Join(dir, "gosdl.toml"))
	assert.Error(t, err, "unsupported extension must be rejected")
}

func TestAutoLoadFindsFileOnSearchPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gosdl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := NewLoader().SetSearchPaths([]string{dir}).AutoLoad()
	require.NoError(t, err)
	assert.Equal(t, "volley", cfg.App.Name)
}

func TestAutoLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().SetSearchPaths([]string{t.TempDir()}).AutoLoad()
	require.NoError(t, err)
	assert.Equal(t, "gosdl-app", cfg.App.Name)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GOSDL_APP_NAME", "from-env")
	t.Setenv("GOSDL_LOG_LEVEL", "ERROR")
	t.Setenv("GOSDL_SCHEDULER_POLL_INTERVAL", "25ms")
	t.Setenv("GOSDL_SCHEDULER_QUEUE_CAPACITY", "64")
	t.Setenv("GOSDL_LOG_CATEGORIES", "signals, timers")

	cfg, err := NewLoader().SetSearchPaths([]string{t.TempDir()}).AutoLoad()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.App.Name)
	assert.Equal(t, LogLevelError, cfg.Log.Level)
	assert.Equal(t, 25*time.Millisecond, cfg.Scheduler.PollInterval)
	assert.Equal(t, 64, cfg.Scheduler.QueueCapacity)
	assert.True(t, cfg.Log.Categories["signals"])
	assert.True(t, cfg.Log.Categories["timers"])
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gosdl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: before\n"), 0o644))

	w, err := NewWatcher(path, NewLoader())
	require.NoError(t, err)
	assert.Equal(t, "before", w.Config().App.Name)

	changed := make(chan *Config, 1)
	w.OnChange(func(oldConfig, newConfig *Config) {
		changed <- newConfig
	})
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: after\n"), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, "after", cfg.App.Name)
		assert.Equal(t, "after", w.Config().App.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("Watcher never observed the rewrite")
	}
}
