package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// EnvPath overrides the default config file location.
const EnvPath = "S1F_CONFIG"

type Config struct {
	Workers         int    `toml:"workers"`
	TimestampMode   string `toml:"timestamp_mode"`
	RespectEncoding bool   `toml:"respect_encoding"`
	TargetEncoding  string `toml:"target_encoding"`
	IgnoreChecksum  bool   `toml:"ignore_checksum"`
	StrictChecksum  bool   `toml:"strict_checksum"`
	Journal         bool   `toml:"journal"`
	JournalPath     string `toml:"journal_path"`

	// Path is the file the config was read from, empty when none existed.
	Path string `toml:"-"`
}

// ConfigError reports an unreadable or invalid config file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Default returns the built-in settings.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		Workers:       10,
		TimestampMode: "original",
		Journal:       true,
		JournalPath:   filepath.Join(home, ".config", "s1f", "journal.db"),
	}, nil
}

// DefaultPath is $S1F_CONFIG, or ~/.config/s1f/config.toml.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "s1f", "config.toml"), nil
}

// Load reads the default config file if it exists.
func Load() (*Config, error) {
	p, err := DefaultPath()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return load(p, false)
}

// LoadFile reads path, which must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(cfgPath string, required bool) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	home, _ := os.UserHomeDir()
	cfgPath = expandHome(cfgPath, home)

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, &ConfigError{Path: cfgPath, Err: fmt.Errorf("parse: %w", err)}
		}
		cfg.Path = cfgPath
	} else if required || !errors.Is(err, os.ErrNotExist) {
		return nil, &ConfigError{Path: cfgPath, Err: err}
	}

	cfg.JournalPath = expandHome(cfg.JournalPath, home)
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Path: cfg.Path, Err: err}
	}
	return cfg, nil
}

// Validate checks values that cannot be caught by decoding.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.TimestampMode {
	case "original", "current":
	default:
		return fmt.Errorf("timestamp_mode must be original or current, got %q", c.TimestampMode)
	}
	if c.RespectEncoding && c.TargetEncoding != "" {
		return errors.New("respect_encoding and target_encoding are mutually exclusive")
	}
	return nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
