// Package config loads the desktop-flow settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mj1618/desktop-flow/internal/engine"
	"gopkg.in/yaml.v3"
)

const appName = "desktop-flow"

// Config represents the CLI configuration. Durations accept Go duration
// strings such as "500ms" or "10s".
type Config struct {
	ImageDir         string        `yaml:"image_dir"`
	DataDir          string        `yaml:"data_dir"`
	Store            string        `yaml:"store"`
	ResolveTimeout   time.Duration `yaml:"resolve_timeout"`
	InterStepDelay   time.Duration `yaml:"inter_step_delay"`
	InterFlowDelay   time.Duration `yaml:"inter_flow_delay"`
	CharDelay        time.Duration `yaml:"char_delay"`
	SettleDelay      time.Duration `yaml:"settle_delay"`
	ScrollAmount     int           `yaml:"scroll_amount"`
	OnFailure        string        `yaml:"on_failure"`
	StrictSubActions bool          `yaml:"strict_sub_actions"`
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"`
}

// DefaultPath is $XDG_CONFIG_HOME/desktop-flow/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), appName, "config.yaml")
}

func defaultDataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), appName)
}

func xdgDir(env, fallback string) string {
	if dir := strings.TrimSpace(os.Getenv(env)); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fallback
	}
	return filepath.Join(home, fallback)
}

// Default returns a Config populated with default values.
func Default() Config {
	s := engine.DefaultSettings()
	dataDir := defaultDataDir()
	return Config{
		ImageDir:       filepath.Join(dataDir, "images"),
		DataDir:        dataDir,
		Store:          "yaml",
		ResolveTimeout: s.ResolveTimeout,
		InterStepDelay: s.InterStepDelay,
		InterFlowDelay: s.InterFlowDelay,
		CharDelay:      s.CharDelay,
		SettleDelay:    s.SettleDelay,
		ScrollAmount:   s.ScrollAmount,
		OnFailure:      "ask",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads configuration from the given path, falling back to defaults when missing.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks enumerated keys and durations.
func (c Config) Validate() error {
	switch c.Store {
	case "yaml", "sqlite", "memory":
	default:
		return fmt.Errorf("config: store must be yaml, sqlite or memory, got %q", c.Store)
	}
	switch c.OnFailure {
	case "ask", "continue", "abort":
	default:
		return fmt.Errorf("config: on_failure must be ask, continue or abort, got %q", c.OnFailure)
	}
	for name, d := range map[string]time.Duration{
		"resolve_timeout":  c.ResolveTimeout,
		"inter_step_delay": c.InterStepDelay,
		"inter_flow_delay": c.InterFlowDelay,
		"char_delay":       c.CharDelay,
		"settle_delay":     c.SettleDelay,
	} {
		if d < 0 {
			return fmt.Errorf("config: %s must not be negative", name)
		}
	}
	if c.ScrollAmount < 0 {
		return fmt.Errorf("config: scroll_amount must not be negative")
	}
	return nil
}

// DimensionCachePath is where measured image sizes are kept.
func (c Config) DimensionCachePath() string {
	return filepath.Join(c.DataDir, "dimensions.yaml")
}

// Settings converts the timing keys to engine settings.
func (c Config) Settings() engine.Settings {
	return engine.Settings{
		ResolveTimeout:   c.ResolveTimeout,
		InterStepDelay:   c.InterStepDelay,
		InterFlowDelay:   c.InterFlowDelay,
		CharDelay:        c.CharDelay,
		SettleDelay:      c.SettleDelay,
		ScrollAmount:     c.ScrollAmount,
		StrictSubActions: c.StrictSubActions,
	}
}
