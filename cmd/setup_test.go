package cmd

import (
	"path/filepath"
	"testing"

	"video-beeper/infrastructure/config"
)

func TestRunSetup_ClientSecretUsesPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "config.yaml")
	prompter := &mockPrompter{
		inputs:   []string{"https://beeper.example.com", "300", "https://auth.example.com/token", "beeper-cli", "."},
		confirms: []bool{true, false},
		selects:  []string{"0.6"},
		secrets:  []string{"s3cret"},
	}

	if err := RunSetupWithPrompter(prompter, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("saved config should load: %v", err)
	}
	if cfg.Backend.Auth.ClientSecret != "s3cret" {
		t.Errorf("ClientSecret = %q, want the password answer", cfg.Backend.Auth.ClientSecret)
	}
	if cfg.Backend.Auth.ClientID != "beeper-cli" {
		t.Errorf("ClientID = %q, want beeper-cli", cfg.Backend.Auth.ClientID)
	}
	if cfg.Output.Directory != "." {
		t.Errorf("Directory = %q, want .", cfg.Output.Directory)
	}
	if len(prompter.secrets) != 0 {
		t.Errorf("password prompt not used, %d answers left", len(prompter.secrets))
	}
	if len(prompter.inputs) != 0 {
		t.Errorf("unused input answers %v: a prompt was skipped or read elsewhere", prompter.inputs)
	}
}
