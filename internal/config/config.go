package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted on top of the YAML file.
const (
	EnvConfigPath    = "CODIC_SLACK_CONFIG"
	EnvCodicToken    = "CODIC_TOKEN"
	EnvSigningSecret = "SLACK_SIGNING_SECRET"
	EnvListen        = "CODIC_SLACK_LISTEN"
)

// Config holds the runtime configuration loaded from config.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Codic    CodicConfig    `yaml:"codic"`
	Slack    SlackConfig    `yaml:"slack"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Registry RegistryConfig `yaml:"registry"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig controls the slash command listener.
type ServerConfig struct {
	Listen                   string `yaml:"listen"`
	SigningSecret            string `yaml:"signing_secret"`
	ReadHeaderTimeoutSeconds int    `yaml:"read_header_timeout_seconds"`
}

// CodicConfig controls calls to the Codic translate API.
type CodicConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Token          string  `yaml:"token"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	Burst          int     `yaml:"burst"`
}

// SlackConfig controls delivery to response URLs and webhooks.
type SlackConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// BridgeConfig bounds work done after a command is acknowledged.
type BridgeConfig struct {
	JobTimeoutSeconds int `yaml:"job_timeout_seconds"`
}

// RegistryConfig enables the team to webhook registry used when Slack does
// not supply a response_url.
type RegistryConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

// LoggingConfig controls log level, handler format and destination.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enable bool `yaml:"enable"`
}

// DefaultDir is where the wizard writes and the CLI looks by default.
func DefaultDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "codic-slack")
	}
	return "."
}

// DefaultPath resolves the config path: explicit flag, then
// $CODIC_SLACK_CONFIG, then ~/.config/codic-slack/config.yaml.
func DefaultPath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Load reads and validates configuration from the provided path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv builds a config from defaults and environment variables only.
// Used where no config file is shipped (Lambda).
func FromEnv() (*Config, error) {
	var cfg Config
	cfg.applyEnv()
	cfg.applyDefaults(DefaultDir())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures the config is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Codic.Token) == "" {
		return errors.New("codic.token is required (or set " + EnvCodicToken + ")")
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Registry.Enable && c.Registry.Path == "" {
		return errors.New("registry.path is required when registry.enable is true")
	}
	return nil
}

// CodicTimeout and friends convert the integer seconds the YAML carries.
func (c *Config) CodicTimeout() time.Duration {
	return time.Duration(c.Codic.TimeoutSeconds) * time.Second
}

func (c *Config) SlackTimeout() time.Duration {
	return time.Duration(c.Slack.TimeoutSeconds) * time.Second
}

func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.Bridge.JobTimeoutSeconds) * time.Second
}

func (c *Config) ReadHeaderTimeout() time.Duration {
	return time.Duration(c.Server.ReadHeaderTimeoutSeconds) * time.Second
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvCodicToken); v != "" {
		c.Codic.Token = v
	}
	if v := os.Getenv(EnvSigningSecret); v != "" {
		c.Server.SigningSecret = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Server.Listen = v
	}
}

func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.ReadHeaderTimeoutSeconds == 0 {
		c.Server.ReadHeaderTimeoutSeconds = 5
	}
	if c.Codic.BaseURL == "" {
		c.Codic.BaseURL = "https://api.codic.jp"
	}
	if c.Codic.TimeoutSeconds == 0 {
		c.Codic.TimeoutSeconds = 10
	}
	if c.Codic.RatePerSecond > 0 && c.Codic.Burst == 0 {
		c.Codic.Burst = 1
	}
	if c.Slack.TimeoutSeconds == 0 {
		c.Slack.TimeoutSeconds = 10
	}
	if c.Bridge.JobTimeoutSeconds == 0 {
		c.Bridge.JobTimeoutSeconds = 60
	}
	if c.Registry.Path == "" {
		c.Registry.Path = filepath.Join(baseDir, "teams.db")
	}
	c.Registry.Path = expandHome(c.Registry.Path)
	if !filepath.IsAbs(c.Registry.Path) {
		c.Registry.Path = filepath.Join(baseDir, c.Registry.Path)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if c.Logging.File != "" {
		c.Logging.File = expandHome(c.Logging.File)
	}
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
