// Package daemon loads configuration and assembles the running process:
// storage, session store and HTTP server.
package daemon

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STAKEDAY_"

// Config is the contents of ~/.stakeday/config.toml.
type Config struct {
	Home    string        `toml:"-"`
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
	Session SessionConfig `toml:"session"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects where blobs live.
type StorageConfig struct {
	Backend string `toml:"backend"` // sqlite or memory
	Dir     string `toml:"dir"`     // empty means Home
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// SessionConfig tunes the session store.
type SessionConfig struct {
	Timezone       string `toml:"timezone"` // IANA name; empty means local
	ProofRetention int    `toml:"proof_retention"`
	JournalSize    int    `toml:"journal_size"`
	WatchInterval  string `toml:"watch_interval"` // Go duration, e.g. "1m"
	AutoPenalty    bool   `toml:"auto_penalty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Home: DefaultHome(),
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7421,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Session: SessionConfig{
			ProofRetention: 365,
			JournalSize:    500,
			WatchInterval:  "1m",
		},
	}
}

// DefaultHome is $STAKEDAY_HOME or ~/.stakeday.
func DefaultHome() string {
	if h := os.Getenv(EnvPrefix + "HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stakeday"
	}
	return filepath.Join(home, ".stakeday")
}

// ConfigPath returns the config file location under home.
func ConfigPath(home string) string {
	return filepath.Join(home, "config.toml")
}

// LoadConfig reads path over the defaults, then applies STAKEDAY_* overrides.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = ConfigPath(cfg.Home)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadDotEnv loads a .env file into the process environment if one exists.
// Variables already set win.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Save writes cfg as TOML to path, creating the directory.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return c.Encode(f)
}

// Encode writes cfg as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate rejects values the process cannot run with.
func (c Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	switch c.Storage.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("storage.backend %q must be sqlite or memory", c.Storage.Backend)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Interval(); err != nil {
		return err
	}
	return nil
}

// Interval parses session.watch_interval. Empty means one minute.
func (c Config) Interval() (time.Duration, error) {
	if c.Session.WatchInterval == "" {
		return time.Minute, nil
	}
	d, err := time.ParseDuration(c.Session.WatchInterval)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("session.watch_interval %q is not a positive duration", c.Session.WatchInterval)
	}
	return d, nil
}

// Addr returns host:port for the HTTP listener.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// DataDir returns where the sqlite database lives.
func (c Config) DataDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	return c.Home
}

// Location resolves the configured timezone. "Today" is computed in it.
func (c Config) Location() (*time.Location, error) {
	if c.Session.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Session.Timezone)
	if err != nil {
		return nil, fmt.Errorf("session.timezone: %w", err)
	}
	return loc, nil
}

// applyEnv overrides fields from STAKEDAY_* variables.
func (c *Config) applyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(name string, dst *int) error {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	flag := func(name string, dst *bool) error {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	str("API_HOST", &c.API.Host)
	str("WATCH_INTERVAL", &c.Session.WatchInterval)
	str("STORAGE", &c.Storage.Backend)
	str("DATA_DIR", &c.Storage.Dir)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("TIMEZONE", &c.Session.Timezone)
	if err := num("API_PORT", &c.API.Port); err != nil {
		return err
	}
	if err := num("PROOF_RETENTION", &c.Session.ProofRetention); err != nil {
		return err
	}
	if err := num("JOURNAL_SIZE", &c.Session.JournalSize); err != nil {
		return err
	}
	if err := flag("METRICS", &c.Metrics.Enabled); err != nil {
		return err
	}
	if err := flag("AUTO_PENALTY", &c.Session.AutoPenalty); err != nil {
		return err
	}
	return nil
}
