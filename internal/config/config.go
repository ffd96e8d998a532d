// ABOUTME: Configuration loading and parsing for giveaway-watcher
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389/giveaway-watcher/internal/gateway"
	"github.com/2389/giveaway-watcher/internal/interaction"
)

const (
	// PathEnv names the environment variable consulted when no --config flag is given.
	PathEnv = "GIVEAWAY_CONFIG"
	// DefaultPath is used when neither the flag nor PathEnv is set.
	DefaultPath = "giveaway.yaml"
	// PortEnv overrides health.port when set.
	PortEnv = "PORT"

	// DefaultAPIBase is the REST API root interactions are posted to.
	DefaultAPIBase = "https://discord.com/api/v9"
)

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Config represents the complete giveaway-watcher configuration
type Config struct {
	Gateway     GatewayConfig     `yaml:"gateway" toml:"gateway"`
	Sessions    SessionsConfig    `yaml:"sessions" toml:"sessions"`
	Credentials CredentialsConfig `yaml:"credentials" toml:"credentials"`
	Health      HealthConfig      `yaml:"health" toml:"health"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
}

// GatewayConfig holds the remote endpoints and the identity presented to them
type GatewayConfig struct {
	URL       string `yaml:"url" toml:"url"`
	APIBase   string `yaml:"api_base" toml:"api_base"`
	Intents   int    `yaml:"intents" toml:"intents"`
	OS        string `yaml:"os" toml:"os"`
	Browser   string `yaml:"browser" toml:"browser"`
	Device    string `yaml:"device" toml:"device"`
	UserAgent string `yaml:"user_agent" toml:"user_agent"`
}

// SessionsConfig holds session scheduling and hardening options
type SessionsConfig struct {
	MinTokenLength    int  `yaml:"min_token_length" toml:"min_token_length"`
	StopOnAuthFailure bool `yaml:"stop_on_auth_failure" toml:"stop_on_auth_failure"`

	StartDelay          time.Duration `yaml:"-" toml:"-"`
	Stagger             time.Duration `yaml:"-" toml:"-"`
	DispatchMinDelay    time.Duration `yaml:"-" toml:"-"`
	DispatchMaxDelay    time.Duration `yaml:"-" toml:"-"`
	HeartbeatAckTimeout time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	StartDelayRaw          string `yaml:"start_delay" toml:"start_delay"`
	StaggerRaw             string `yaml:"stagger" toml:"stagger"`
	DispatchMinDelayRaw    string `yaml:"dispatch_min_delay" toml:"dispatch_min_delay"`
	DispatchMaxDelayRaw    string `yaml:"dispatch_max_delay" toml:"dispatch_max_delay"`
	HeartbeatAckTimeoutRaw string `yaml:"heartbeat_ack_timeout" toml:"heartbeat_ack_timeout"`
}

// CredentialsConfig names where account tokens are read from
type CredentialsConfig struct {
	Env  string `yaml:"env" toml:"env"`
	File string `yaml:"file" toml:"file"`
}

// HealthConfig holds the liveness endpoint configuration
type HealthConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
	Port int    `yaml:"port" toml:"port"`
}

// Address returns the listen address for the liveness server.
func (h HealthConfig) Address() string {
	return net.JoinHostPort(h.Addr, strconv.Itoa(h.Port))
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			URL:       gateway.DefaultURL,
			APIBase:   DefaultAPIBase,
			Intents:   gateway.DefaultIntents,
			OS:        gateway.DefaultProperties.OS,
			Browser:   gateway.DefaultProperties.Browser,
			Device:    gateway.DefaultProperties.Device,
			UserAgent: interaction.DefaultUserAgent,
		},
		Sessions: SessionsConfig{
			MinTokenLength:         11,
			StartDelayRaw:          "3s",
			StaggerRaw:             "2s",
			DispatchMinDelayRaw:    interaction.DefaultMinDelay.String(),
			DispatchMaxDelayRaw:    interaction.DefaultMaxDelay.String(),
			HeartbeatAckTimeoutRaw: "0s",
		},
		Credentials: CredentialsConfig{
			Env:  "TOKENS",
			File: "token.txt",
		},
		Health: HealthConfig{
			Port: 3000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ResolvePath picks the config file path: the flag value, then PathEnv, then DefaultPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML. Values
// missing from the file keep their defaults. Environment variables in the
// format ${VAR_NAME} are expanded and PORT overrides health.port.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(cfg)
}

// LoadOrDefault behaves like Load but returns Default() when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return finish(Default())
	}
	return cfg, err
}

func finish(cfg *Config) (*Config, error) {
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envPattern.FindStringSubmatch(match)[1])
	})
}

func applyEnvOverrides(cfg *Config) error {
	raw := os.Getenv(PortEnv)
	if raw == "" {
		return nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("parsing %s %q: %w", PortEnv, raw, err)
	}
	cfg.Health.Port = port
	return nil
}

// Validate checks that all configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if err := requireScheme("gateway.url", c.Gateway.URL, "ws", "wss"); err != nil {
		return err
	}
	if err := requireScheme("gateway.api_base", c.Gateway.APIBase, "http", "https"); err != nil {
		return err
	}
	if c.Gateway.Intents <= 0 {
		return fmt.Errorf("gateway.intents must be positive")
	}

	s := c.Sessions
	if s.MinTokenLength < 1 {
		return fmt.Errorf("sessions.min_token_length must be at least 1")
	}
	if s.StartDelay < 0 || s.Stagger < 0 || s.HeartbeatAckTimeout < 0 {
		return fmt.Errorf("sessions delays must not be negative")
	}
	if s.DispatchMinDelay < 0 || s.DispatchMaxDelay <= s.DispatchMinDelay {
		return fmt.Errorf("sessions.dispatch_max_delay (%v) must exceed dispatch_min_delay (%v)",
			s.DispatchMaxDelay, s.DispatchMinDelay)
	}

	if c.Credentials.Env == "" && c.Credentials.File == "" {
		return fmt.Errorf("credentials.env or credentials.file is required")
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port %d out of range", c.Health.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q must be text or json", c.Logging.Format)
	}
	return nil
}

func requireScheme(field, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%s must use %s scheme", field, strings.Join(schemes, " or "))
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	s := &cfg.Sessions
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"start_delay", s.StartDelayRaw, &s.StartDelay},
		{"stagger", s.StaggerRaw, &s.Stagger},
		{"dispatch_min_delay", s.DispatchMinDelayRaw, &s.DispatchMinDelay},
		{"dispatch_max_delay", s.DispatchMaxDelayRaw, &s.DispatchMaxDelay},
		{"heartbeat_ack_timeout", s.HeartbeatAckTimeoutRaw, &s.HeartbeatAckTimeout},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
