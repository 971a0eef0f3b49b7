// Package config handles configuration loading and saving.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linanwx/cardchat/logger"
)

const (
	configDirName  = ".cardchat"
	configFileName = "config.yaml"
)

// ErrConfigMissing is returned when a required setting is absent.
var ErrConfigMissing = errors.New("config: required setting missing")

var configDirOverride string

// SetConfigDir overrides the config directory for the current process.
// Empty value clears the override.
func SetConfigDir(dir string) {
	configDirOverride = strings.TrimSpace(dir)
}

// Config is the root configuration structure.
type Config struct {
	Device  DeviceConfig  `json:"device" yaml:"device"`
	Gemini  GeminiConfig  `json:"gemini" yaml:"gemini"`
	Display DisplayConfig `json:"display" yaml:"display"`
	Notify  NotifyConfig  `json:"notify" yaml:"notify"`
	Network NetworkConfig `json:"network" yaml:"network"`
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	Debug   bool          `json:"debug,omitempty" yaml:"debug,omitempty"` // panic on invariant violations
}

// DeviceConfig holds the wireless credentials.
type DeviceConfig struct {
	WifiSSID     string `json:"wifiSsid" yaml:"wifiSsid"`
	WifiPassword string `json:"wifiPassword" yaml:"wifiPassword"`
}

// GeminiConfig configures the remote text-generation service.
type GeminiConfig struct {
	APIKey                string         `json:"apiKey" yaml:"apiKey"`
	APIBase               string         `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
	Model                 string         `json:"model" yaml:"model"`
	MaxOutputTokens       int            `json:"maxOutputTokens,omitempty" yaml:"maxOutputTokens,omitempty"`
	MaxPairs              int            `json:"maxPairs,omitempty" yaml:"maxPairs,omitempty"`
	Persona               string         `json:"persona,omitempty" yaml:"persona,omitempty"`
	RequestTimeoutSeconds int            `json:"requestTimeoutSeconds,omitempty" yaml:"requestTimeoutSeconds,omitempty"`
	ExtraBody             map[string]any `json:"extraBody,omitempty" yaml:"extraBody,omitempty"` // sjson path → value
}

// DisplayConfig is the emulated screen geometry in pixels.
type DisplayConfig struct {
	Width      int `json:"width,omitempty" yaml:"width,omitempty"`
	Height     int `json:"height,omitempty" yaml:"height,omitempty"`
	GlyphWidth int `json:"glyphWidth,omitempty" yaml:"glyphWidth,omitempty"`
	LineHeight int `json:"lineHeight,omitempty" yaml:"lineHeight,omitempty"`
}

// NotifyConfig bounds the error popup.
type NotifyConfig struct {
	DurationSeconds int `json:"durationSeconds,omitempty" yaml:"durationSeconds,omitempty"`
	MaxChars        int `json:"maxChars,omitempty" yaml:"maxChars,omitempty"`
	BodyPrefix      int `json:"bodyPrefix,omitempty" yaml:"bodyPrefix,omitempty"`
}

// NetworkConfig drives the link readiness probe and reconnect loop.
type NetworkConfig struct {
	ProbeAddr     string `json:"probeAddr,omitempty" yaml:"probeAddr,omitempty"` // host:port dialed to test readiness
	Retries       int    `json:"retries,omitempty" yaml:"retries,omitempty"`
	BackoffMillis int    `json:"backoffMillis,omitempty" yaml:"backoffMillis,omitempty"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Level   string `json:"level,omitempty" yaml:"level,omitempty"`   // debug, info, warn, error
	Stdout  bool   `json:"stdout,omitempty" yaml:"stdout,omitempty"` // log to stdout
	File    string `json:"file,omitempty" yaml:"file,omitempty"`     // log file path
	Format  string `json:"format,omitempty" yaml:"format,omitempty"` // text, json
}

// ConfigDir returns the directory holding config.yaml.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigPath returns the full path of config.yaml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads config.yaml, applies defaults and environment overrides.
// A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// LoadFile reads the config at path without environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("config file not found, using defaults", "path", path)
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to ConfigPath with owner-only permissions, since it
// holds the API key and wifi password.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Validate reports startup-fatal problems.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		return fmt.Errorf("%w: gemini.apiKey", ErrConfigMissing)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("GEMINI_API_KEY")); v != "" {
		c.Gemini.APIKey = v
	}
	if v := strings.TrimSpace(getenv("GEMINI_API_BASE")); v != "" {
		c.Gemini.APIBase = v
	}
	if v := getenv("CARDCHAT_WIFI_SSID"); v != "" {
		c.Device.WifiSSID = v
	}
	if v := getenv("CARDCHAT_WIFI_PASSWORD"); v != "" {
		c.Device.WifiPassword = v
	}
}

// RequestTimeout returns the per-request deadline.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Gemini.RequestTimeoutSeconds) * time.Second
}

// NotifyDuration returns how long an error popup stays up.
func (c *Config) NotifyDuration() time.Duration {
	return time.Duration(c.Notify.DurationSeconds) * time.Second
}

// Backoff returns the fixed delay between reconnect attempts.
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.Network.BackoffMillis) * time.Millisecond
}

// BuildLoggerConfig converts the logging section for logger.Init.
func (c *Config) BuildLoggerConfig() logger.Config {
	enabled := true
	if c.Logging.Enabled != nil {
		enabled = *c.Logging.Enabled
	}
	return logger.Config{
		Enabled: enabled,
		Level:   c.Logging.Level,
		Stdout:  c.Logging.Stdout,
		File:    c.Logging.File,
		Format:  c.Logging.Format,
	}
}
