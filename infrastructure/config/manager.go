package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"video-beeper/domain/video"
	"video-beeper/infrastructure/logging"
)

// Errors for config management
var (
	ErrUnknownKey   = errors.New("unknown config key")
	ErrInvalidValue = errors.New("invalid config value")
)

// Manager updates individual config entries and persists them
type Manager struct {
	config     *Config
	configPath string
}

// NewManager creates a new config manager
func NewManager(cfg *Config, configPath string) *Manager {
	return &Manager{
		config:     cfg,
		configPath: configPath,
	}
}

// Entry is one settable key and its current value
type Entry struct {
	Key   string
	Value string
}

// setters maps user-facing keys to the update they perform
var setters = map[string]func(m *Manager, value string) error{
	"backend-url":   (*Manager).SetBackendURL,
	"endpoint-path": (*Manager).SetEndpointPath,
	"timeout":       (*Manager).SetTimeout,
	"threshold":     (*Manager).SetThreshold,
	"output-dir":    (*Manager).SetOutputDirectory,
	"filename":      (*Manager).SetFilename,
	"log-level":     (*Manager).SetLogLevel,
	"log-format":    (*Manager).SetLogFormat,
}

// Keys returns the settable keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set updates key to value and saves the file
func (m *Manager) Set(key, value string) error {
	setter, ok := setters[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
	return setter(m, strings.TrimSpace(value))
}

// Entries returns every settable key with its current value
func (m *Manager) Entries() []Entry {
	c := m.config
	threshold := ""
	if c.Defaults.Threshold != nil {
		threshold = video.Threshold(*c.Defaults.Threshold).String()
	}
	entries := []Entry{
		{Key: "backend-url", Value: c.Backend.BaseURL},
		{Key: "endpoint-path", Value: c.Backend.EndpointPath},
		{Key: "timeout", Value: strconv.Itoa(c.Backend.TimeoutSeconds)},
		{Key: "threshold", Value: threshold},
		{Key: "output-dir", Value: c.Output.Directory},
		{Key: "filename", Value: c.Output.Filename},
		{Key: "log-level", Value: c.Logging.Level},
		{Key: "log-format", Value: c.Logging.Format},
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// SetBackendURL updates the processing service base URL
func (m *Manager) SetBackendURL(value string) error {
	previous := m.config.Backend.BaseURL
	m.config.Backend.BaseURL = value
	if err := m.config.Validate(); err != nil {
		m.config.Backend.BaseURL = previous
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return Save(m.config, m.configPath)
}

// SetEndpointPath updates the path requests are posted to
func (m *Manager) SetEndpointPath(value string) error {
	if value == "" {
		return fmt.Errorf("%w: endpoint path is required", ErrInvalidValue)
	}
	if !strings.HasPrefix(value, "/") {
		value = "/" + value
	}
	m.config.Backend.EndpointPath = value
	return Save(m.config, m.configPath)
}

// SetTimeout updates the request timeout in seconds
func (m *Manager) SetTimeout(value string) error {
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return fmt.Errorf("%w: timeout must be a positive number of seconds, got %q", ErrInvalidValue, value)
	}
	m.config.Backend.TimeoutSeconds = seconds
	return Save(m.config, m.configPath)
}

// SetThreshold updates the default threshold
func (m *Manager) SetThreshold(value string) error {
	t, err := video.ParseThreshold(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	v := t.Float64()
	m.config.Defaults.Threshold = &v
	return Save(m.config, m.configPath)
}

// SetOutputDirectory updates where downloads are written
func (m *Manager) SetOutputDirectory(value string) error {
	if value == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidValue)
	}
	m.config.Output.Directory = value
	return Save(m.config, m.configPath)
}

// SetFilename updates the download file name
func (m *Manager) SetFilename(value string) error {
	if value == "" || strings.ContainsAny(value, `/\`) {
		return fmt.Errorf("%w: filename must be a plain file name, got %q", ErrInvalidValue, value)
	}
	m.config.Output.Filename = value
	return Save(m.config, m.configPath)
}

// SetLogLevel updates the log level
func (m *Manager) SetLogLevel(value string) error {
	if _, err := logging.ParseLevel(value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	m.config.Logging.Level = strings.ToLower(value)
	return Save(m.config, m.configPath)
}

// SetLogFormat updates the log format
func (m *Manager) SetLogFormat(value string) error {
	value = strings.ToLower(value)
	if value != "console" && value != "json" {
		return fmt.Errorf("%w: log format must be console or json, got %q", ErrInvalidValue, value)
	}
	m.config.Logging.Format = value
	return Save(m.config, m.configPath)
}
