package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every lookup location at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(Options{EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, CacheSQLite, cfg.Cache.Backend)
	assert.Equal(t, "baseline", cfg.Recommend.Mode)
	assert.False(t, cfg.SyncOnOpen)
	assert.Equal(t, filepath.Join(dir, "learnpath", "learnpath.log"), cfg.Log.File)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "learnpath"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "learnpath", "config.yaml"), []byte(`
api:
  base_url: http://courses.local:9000
  timeout: 3s
recommend:
  mode: adaptive
sync_on_open: true
`), 0o644))

	cfg, err := Load(Options{EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, "http://courses.local:9000", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "adaptive", cfg.Recommend.Mode)
	assert.True(t, cfg.SyncOnOpen)
}

func TestEnvOverridesFileAndFlagsOverrideEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://from-file\n"), 0o644))
	t.Setenv("LEARNPATH_API_BASE_URL", "http://from-env")
	t.Setenv("LEARNPATH_CACHE_BACKEND", "redis")

	cfg, err := Load(Options{ConfigFile: path, EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.API.BaseURL)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)

	cfg, err = Load(Options{
		ConfigFile: path,
		EnvFile:    filepath.Join(dir, "missing.env"),
		Overrides:  map[string]any{"api.base_url": "http://from-flag"},
	})
	require.NoError(t, err)
	assert.Equal(t, "http://from-flag", cfg.API.BaseURL)
}

func TestDotEnvFile(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("LEARNPATH_LOG_LEVEL=debug\n"), 0o644))
	// godotenv does not override variables that are already set, so make
	// sure the process env is clean and restored afterwards.
	t.Setenv("LEARNPATH_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("LEARNPATH_LOG_LEVEL"))

	cfg, err := Load(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestMissingExplicitConfigFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(Options{ConfigFile: filepath.Join(dir, "nope.yaml"), EnvFile: filepath.Join(dir, "missing.env")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "redis backend", mutate: func(c *Config) { c.Cache.Backend = CacheRedis }},
		{name: "unknown backend", mutate: func(c *Config) { c.Cache.Backend = "memcached" }, wantErr: true},
		{name: "unknown mode", mutate: func(c *Config) { c.Recommend.Mode = "random" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.API.Timeout = 0 }, wantErr: true},
		{name: "blank url", mutate: func(c *Config) { c.API.BaseURL = " " }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
