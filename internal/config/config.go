// Package config loads learnpath settings from flags, environment, an
// optional .env file and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. LEARNPATH_API_BASE_URL.
const EnvPrefix = "LEARNPATH"

// Cache backends.
const (
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// Config holds all learnpath settings.
type Config struct {
	API        API       `mapstructure:"api"`
	DB         string    `mapstructure:"db"` // empty means the XDG data path
	Cache      Cache     `mapstructure:"cache"`
	Log        Log       `mapstructure:"log"`
	Recommend  Recommend `mapstructure:"recommend"`
	SyncOnOpen bool      `mapstructure:"sync_on_open"` // reconcile with the service when a course opens
	Server     Server    `mapstructure:"server"`
}

// API configures the course service client.
type API struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Cache selects where progress flags are cached.
type Cache struct {
	Backend     string `mapstructure:"backend"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

type Log struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type Recommend struct {
	Mode string `mapstructure:"mode"` // baseline or adaptive
}

// Server configures the development fixture server.
type Server struct {
	Addr     string `mapstructure:"addr"`
	Secret   string `mapstructure:"secret"`   // empty means a random secret per run
	Fixtures string `mapstructure:"fixtures"` // empty means the embedded sample
}

// Options carries the inputs that come from the command line.
type Options struct {
	// ConfigFile overrides the default config file location.
	ConfigFile string
	// EnvFile is loaded into the environment before reading variables.
	// Empty means ".env" in the working directory; a missing file is fine.
	EnvFile string
	// Overrides are flag values keyed by config key; they win over
	// everything else.
	Overrides map[string]any
}

// Load resolves the configuration. Precedence: overrides, environment,
// config file, defaults.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	} else if dir := defaultConfigDir(); dir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error loading config file: %w", err)
			}
		}
	}

	for k, val := range opts.Overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with no file, environment or flags.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://127.0.0.1:8000")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("db", "")
	v.SetDefault("cache.backend", CacheSQLite)
	v.SetDefault("cache.redis_addr", "127.0.0.1:6379")
	v.SetDefault("cache.redis_prefix", "learnpath:")
	v.SetDefault("log.mode", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", defaultLogFile())
	v.SetDefault("recommend.mode", "baseline")
	v.SetDefault("sync_on_open", false)
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.secret", "")
	v.SetDefault("server.fixtures", "")
}

// Validate rejects values no component can act on.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheSQLite, CacheRedis:
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q", CacheSQLite, CacheRedis, c.Cache.Backend)
	}
	switch c.Recommend.Mode {
	case "baseline", "adaptive":
	default:
		return fmt.Errorf("recommend.mode must be baseline or adaptive, got %q", c.Recommend.Mode)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	return nil
}

// defaultConfigDir is $XDG_CONFIG_HOME/learnpath, or ~/.config/learnpath.
func defaultConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "learnpath")
}

// defaultLogFile is $XDG_STATE_HOME/learnpath/learnpath.log, or under
// ~/.local/state.
func defaultLogFile() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "learnpath", "learnpath.log")
}
