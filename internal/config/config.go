// Package config loads tomato's YAML configuration and its environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/store"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfig = "TOMATO_CONFIG"
	EnvDB     = "TOMATO_DB"
	EnvKV     = "TOMATO_KV"

	MaxMinutes = 180
)

type Config struct {
	DBPath            string        `yaml:"db_path"`
	KVPath            string        `yaml:"kv_path"`
	FocusMinutes      int           `yaml:"focus_minutes"`
	ShortBreakMinutes int           `yaml:"short_break_minutes"`
	SoundEnabled      bool          `yaml:"sound_enabled"`
	Notifications     bool          `yaml:"notifications"`
	AutoStartSteps    bool          `yaml:"auto_start_steps"`
	LogLevel          string        `yaml:"log_level"`
	AdvanceDelay      time.Duration `yaml:"advance_delay"`
}

func Default() Config {
	return Config{
		FocusMinutes:      25,
		ShortBreakMinutes: 5,
		SoundEnabled:      true,
		Notifications:     true,
		LogLevel:          "warn",
		AdvanceDelay:      time.Second,
	}
}

// DefaultPath returns ~/.config/tomato/config.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tomato", "config.yaml"), nil
}

// ResolvePath picks the config file: the explicit path, then $TOMATO_CONFIG,
// then DefaultPath.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	return DefaultPath()
}

// Load reads the config file at path, which may be missing, and applies the
// environment overrides. Invalid fields are reset to their defaults and
// reported in the returned error; the Config is usable either way.
func Load(path string) (Config, error) {
	cfg := Default()
	var errs []error

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			cfg = Default()
			errs = append(errs, fmt.Errorf("parse %s: %w", path, err))
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		errs = append(errs, fmt.Errorf("read %s: %w", path, err))
	}

	if v := os.Getenv(EnvDB); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvKV); v != "" {
		cfg.KVPath = v
	}

	errs = append(errs, cfg.validate()...)
	if err := cfg.fillPaths(); err != nil {
		errs = append(errs, err)
	}
	return cfg, errors.Join(errs...)
}

func (c *Config) validate() []error {
	var errs []error
	def := Default()
	if c.FocusMinutes < 1 || c.FocusMinutes > MaxMinutes {
		errs = append(errs, fmt.Errorf("focus_minutes %d out of range 1..%d", c.FocusMinutes, MaxMinutes))
		c.FocusMinutes = def.FocusMinutes
	}
	if c.ShortBreakMinutes < 1 || c.ShortBreakMinutes > MaxMinutes {
		errs = append(errs, fmt.Errorf("short_break_minutes %d out of range 1..%d", c.ShortBreakMinutes, MaxMinutes))
		c.ShortBreakMinutes = def.ShortBreakMinutes
	}
	if c.AdvanceDelay < 0 {
		errs = append(errs, fmt.Errorf("advance_delay %s is negative", c.AdvanceDelay))
		c.AdvanceDelay = def.AdvanceDelay
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
		c.LogLevel = def.LogLevel
	}
	return errs
}

func (c *Config) fillPaths() error {
	if c.DBPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("default db path: %w", err)
		}
		c.DBPath = p
	}
	if c.KVPath == "" {
		p, err := store.DefaultKVPath()
		if err != nil {
			return fmt.Errorf("default kv path: %w", err)
		}
		c.KVPath = p
	}
	return nil
}

// Level is the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelWarn
	}
	return lvl
}

// DataDir is the directory holding the database, used for exports and the
// TUI log file.
func (c Config) DataDir() string {
	if c.DBPath == "" || c.DBPath == ":memory:" {
		return "."
	}
	return filepath.Dir(c.DBPath)
}

func (c Config) Session() session.Config {
	return session.Config{
		FocusSeconds:      int64(c.FocusMinutes) * 60,
		ShortBreakSeconds: int64(c.ShortBreakMinutes) * 60,
		AdvanceDelay:      c.AdvanceDelay,
		AutoStartSteps:    c.AutoStartSteps,
	}
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
