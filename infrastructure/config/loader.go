package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video-beeper/domain/video"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults applied to missing config values
const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultEndpointPath   = "/process-video/"
	DefaultTimeoutSeconds = 300
	DefaultFilename       = "beeped_audio.wav"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

// Config represents the complete application configuration
type Config struct {
	Backend  BackendConfig  `yaml:"backend" toml:"backend"`
	Defaults DefaultsConfig `yaml:"defaults" toml:"defaults"`
	Output   OutputConfig   `yaml:"output" toml:"output"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// BackendConfig contains processing service settings
type BackendConfig struct {
	BaseURL        string     `yaml:"base_url" toml:"base_url"`
	EndpointPath   string     `yaml:"endpoint_path" toml:"endpoint_path"`
	TimeoutSeconds int        `yaml:"timeout_seconds" toml:"timeout_seconds"`
	Auth           AuthConfig `yaml:"auth,omitempty" toml:"auth,omitempty"`
}

// AuthConfig contains optional OAuth 2.0 client credentials
type AuthConfig struct {
	TokenURL     string   `yaml:"token_url,omitempty" toml:"token_url,omitempty"`
	ClientID     string   `yaml:"client_id,omitempty" toml:"client_id,omitempty"`
	ClientSecret string   `yaml:"client_secret,omitempty" toml:"client_secret,omitempty"`
	Scopes       []string `yaml:"scopes,omitempty" toml:"scopes,omitempty"`
}

// DefaultsConfig contains default submission inputs
type DefaultsConfig struct {
	// Threshold is a pointer because 0 is a valid setting
	Threshold *float64 `yaml:"threshold,omitempty" toml:"threshold,omitempty"`
}

// OutputConfig contains settings for the downloaded audio
type OutputConfig struct {
	Directory     string `yaml:"directory" toml:"directory"`
	Filename      string `yaml:"filename" toml:"filename"`
	Download      bool   `yaml:"download" toml:"download"`
	TempDirectory string `yaml:"temp_directory,omitempty" toml:"temp_directory,omitempty"`
}

// LoggingConfig contains structured logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in unset values
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		c.Backend.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(c.Backend.EndpointPath) == "" {
		c.Backend.EndpointPath = DefaultEndpointPath
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Defaults.Threshold == nil {
		v := video.DefaultThreshold.Float64()
		c.Defaults.Threshold = &v
	}
	if strings.TrimSpace(c.Output.Directory) == "" {
		c.Output.Directory = "."
	}
	if strings.TrimSpace(c.Output.Filename) == "" {
		c.Output.Filename = DefaultFilename
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Validate checks values that would otherwise fail at submission time
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an http(s) URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return fmt.Errorf("backend.timeout_seconds must be positive, got %d", c.Backend.TimeoutSeconds)
	}
	if c.Defaults.Threshold != nil {
		if _, err := video.NewThreshold(*c.Defaults.Threshold); err != nil {
			return fmt.Errorf("defaults.threshold: %w", err)
		}
	}
	if filepath.Base(c.Output.Filename) != c.Output.Filename {
		return fmt.Errorf("output.filename must be a plain file name, got %q", c.Output.Filename)
	}
	auth := c.Backend.Auth
	if auth.TokenURL != "" && auth.ClientID == "" {
		return fmt.Errorf("backend.auth.client_id is required when token_url is set")
	}
	return nil
}

// Timeout returns the request timeout as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// Threshold returns the configured default threshold
func (c *Config) Threshold() video.Threshold {
	if c.Defaults.Threshold == nil {
		return video.DefaultThreshold
	}
	t, err := video.NewThreshold(*c.Defaults.Threshold)
	if err != nil {
		return video.DefaultThreshold
	}
	return t
}

// Load reads and parses the configuration from the specified YAML or TOML
// file, applies defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault behaves like Load but returns defaults when the file does
// not exist
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes the configuration to the specified file, as TOML when the
// path ends in .toml and YAML otherwise
func Save(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
