package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T) (*Manager, *Config, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	return NewManager(cfg, path), cfg, path
}

func TestManager_Set(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name:  "backend url",
			key:   "backend-url",
			value: "https://beeper.example.com",
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Backend.BaseURL != "https://beeper.example.com" {
					t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
				}
			},
		},
		{
			name:  "endpoint path gains leading slash",
			key:   "endpoint-path",
			value: "beep/",
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Backend.EndpointPath != "/beep/" {
					t.Errorf("EndpointPath = %q, want /beep/", cfg.Backend.EndpointPath)
				}
			},
		},
		{
			name:  "timeout",
			key:   "timeout",
			value: "30",
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Backend.TimeoutSeconds != 30 {
					t.Errorf("TimeoutSeconds = %d, want 30", cfg.Backend.TimeoutSeconds)
				}
			},
		},
		{
			name:  "threshold snaps to grid",
			key:   "threshold",
			value: "0.74",
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Threshold().String() != "0.7" {
					t.Errorf("Threshold() = %v, want 0.7", cfg.Threshold())
				}
			},
		},
		{
			name:  "output dir",
			key:   "output-dir",
			value: "/srv/audio",
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Output.Directory != "/srv/audio" {
					t.Errorf("Directory = %q", cfg.Output.Directory)
				}
			},
		},
		{
			name:  "filename",
			key:   "filename",
			value: "clean.wav",
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Output.Filename != "clean.wav" {
					t.Errorf("Filename = %q", cfg.Output.Filename)
				}
			},
		},
		{
			name:  "log level is case insensitive",
			key:   "LOG-LEVEL",
			value: "DEBUG",
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("Level = %q, want debug", cfg.Logging.Level)
				}
			},
		},
		{
			name:  "log format",
			key:   "log-format",
			value: "json",
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Format != "json" {
					t.Errorf("Format = %q, want json", cfg.Logging.Format)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, cfg, path := newTestManager(t)

			if err := m.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			tt.verify(t, cfg)

			saved, err := Load(path)
			if err != nil {
				t.Fatalf("saved config should load: %v", err)
			}
			tt.verify(t, saved)
		})
	}
}

func TestManager_SetInvalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{name: "unknown key", key: "colour", value: "red", wantErr: ErrUnknownKey},
		{name: "bad url", key: "backend-url", value: "not a url", wantErr: ErrInvalidValue},
		{name: "zero timeout", key: "timeout", value: "0", wantErr: ErrInvalidValue},
		{name: "non numeric timeout", key: "timeout", value: "soon", wantErr: ErrInvalidValue},
		{name: "threshold above range", key: "threshold", value: "1.2", wantErr: ErrInvalidValue},
		{name: "empty output dir", key: "output-dir", value: "", wantErr: ErrInvalidValue},
		{name: "filename with path", key: "filename", value: "a/b.wav", wantErr: ErrInvalidValue},
		{name: "unknown log level", key: "log-level", value: "verbose", wantErr: ErrInvalidValue},
		{name: "unknown log format", key: "log-format", value: "xml", wantErr: ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestManager(t)
			err := m.Set(tt.key, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Set() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestManager_SetBackendURLRestoresOnError(t *testing.T) {
	m, cfg, _ := newTestManager(t)

	if err := m.SetBackendURL("ftp://nope"); err == nil {
		t.Fatal("expected error")
	}
	if cfg.Backend.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want previous value restored", cfg.Backend.BaseURL)
	}
}

func TestManager_Entries(t *testing.T) {
	m, _, _ := newTestManager(t)

	entries := m.Entries()
	if len(entries) != len(Keys()) {
		t.Fatalf("got %d entries, want %d", len(entries), len(Keys()))
	}
	for i, key := range Keys() {
		if entries[i].Key != key {
			t.Errorf("entries[%d].Key = %q, want %q", i, entries[i].Key, key)
		}
	}

	values := map[string]string{}
	for _, e := range entries {
		values[e.Key] = e.Value
	}
	if values["threshold"] != "0.6" {
		t.Errorf("threshold = %q, want 0.6", values["threshold"])
	}
	if values["timeout"] != "300" {
		t.Errorf("timeout = %q, want 300", values["timeout"])
	}
}
