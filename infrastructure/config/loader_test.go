package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"video-beeper/domain/video"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backend.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.Backend.BaseURL, DefaultBaseURL)
	}
	if cfg.Backend.EndpointPath != "/process-video/" {
		t.Errorf("EndpointPath = %q, want /process-video/", cfg.Backend.EndpointPath)
	}
	if cfg.Timeout() != 300*time.Second {
		t.Errorf("Timeout() = %v, want 300s", cfg.Timeout())
	}
	if cfg.Threshold() != video.DefaultThreshold {
		t.Errorf("Threshold() = %v, want %v", cfg.Threshold(), video.DefaultThreshold)
	}
	if cfg.Output.Filename != "beeped_audio.wav" {
		t.Errorf("Filename = %q, want beeped_audio.wav", cfg.Output.Filename)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v, want info/console", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
backend:
  base_url: https://beeper.example.com
  timeout_seconds: 60
defaults:
  threshold: 0
output:
  directory: /tmp/out
  download: true
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "https://beeper.example.com" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.EndpointPath != DefaultEndpointPath {
		t.Errorf("EndpointPath = %q, want default", cfg.Backend.EndpointPath)
	}
	if cfg.Timeout() != time.Minute {
		t.Errorf("Timeout() = %v, want 1m", cfg.Timeout())
	}
	if cfg.Threshold() != 0 {
		t.Errorf("explicit threshold 0 should be kept, got %v", cfg.Threshold())
	}
	if !cfg.Output.Download || cfg.Output.Directory != "/tmp/out" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[backend]
base_url = "http://10.0.0.5:9000"
timeout_seconds = 120

[backend.auth]
token_url = "https://auth.example.com/token"
client_id = "beeper"
client_secret = "s3cret"
scopes = ["process"]

[defaults]
threshold = 0.8
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "http://10.0.0.5:9000" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Threshold().String() != "0.8" {
		t.Errorf("Threshold() = %v, want 0.8", cfg.Threshold())
	}
	if cfg.Backend.Auth.ClientID != "beeper" || len(cfg.Backend.Auth.Scopes) != 1 {
		t.Errorf("Auth = %+v", cfg.Backend.Auth)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			file:    "config.yaml",
			content: "backend: [unclosed",
			wantErr: "failed to parse config file",
		},
		{
			name:    "malformed toml",
			file:    "config.toml",
			content: "[backend\nbase_url=",
			wantErr: "failed to parse config file",
		},
		{
			name:    "bad url scheme",
			file:    "config.yaml",
			content: "backend:\n  base_url: ftp://example.com\n",
			wantErr: "backend.base_url",
		},
		{
			name:    "negative timeout",
			file:    "config.yaml",
			content: "backend:\n  timeout_seconds: -5\n",
			wantErr: "timeout_seconds",
		},
		{
			name:    "threshold out of range",
			file:    "config.yaml",
			content: "defaults:\n  threshold: 1.5\n",
			wantErr: "defaults.threshold",
		},
		{
			name:    "filename with directory",
			file:    "config.yaml",
			content: "output:\n  filename: ../escape.wav\n",
			wantErr: "output.filename",
		},
		{
			name:    "auth without client id",
			file:    "config.yaml",
			content: "backend:\n  auth:\n    token_url: https://auth.example.com/token\n",
			wantErr: "client_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Backend.BaseURL != DefaultBaseURL {
		t.Errorf("expected defaults, got BaseURL %q", cfg.Backend.BaseURL)
	}
}

func TestLoadOrDefault_InvalidFileStillFails(t *testing.T) {
	path := writeFile(t, "config.yaml", "backend: [unclosed")
	if _, err := LoadOrDefault(path); err == nil {
		t.Fatal("expected parse error to surface")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			cfg := Default()
			cfg.Backend.BaseURL = "https://beeper.example.com"
			cfg.Backend.TimeoutSeconds = 45
			threshold := 0.3
			cfg.Defaults.Threshold = &threshold
			cfg.Output.Download = true

			if err := Save(cfg, path); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if loaded.Backend.BaseURL != cfg.Backend.BaseURL {
				t.Errorf("BaseURL = %q, want %q", loaded.Backend.BaseURL, cfg.Backend.BaseURL)
			}
			if loaded.Backend.TimeoutSeconds != 45 {
				t.Errorf("TimeoutSeconds = %d, want 45", loaded.Backend.TimeoutSeconds)
			}
			if loaded.Threshold().String() != "0.3" {
				t.Errorf("Threshold() = %v, want 0.3", loaded.Threshold())
			}
			if !loaded.Output.Download {
				t.Error("Download should round-trip")
			}
		})
	}
}

func TestSave_FileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(Default(), path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}
