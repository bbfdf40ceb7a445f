//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-beeper/cmd"
	"video-beeper/infrastructure/config"

	"github.com/cucumber/godog"
)

type setupContext struct {
	tempDir         string
	configPath      string
	setupCancelled  bool
	originalContent string
	err             error
}

var SharedSetupContext = &setupContext{}

// MockPrompter implements cmd.Prompter for testing
type MockPrompter struct {
	inputResponses   []string
	confirmResponses []bool
	selectResponses  []string
	secretResponses  []string
	inputIndex       int
	confirmIndex     int
	selectIndex      int
	secretIndex      int
}

func NewMockPrompter(inputs []string, confirms []bool) *MockPrompter {
	return &MockPrompter{
		inputResponses:   inputs,
		confirmResponses: confirms,
	}
}

// WithSelections queues answers for Select prompts
func (m *MockPrompter) WithSelections(selections ...string) *MockPrompter {
	m.selectResponses = selections
	return m
}

func (m *MockPrompter) Input(message string, defaultValue string) (string, error) {
	if m.inputIndex >= len(m.inputResponses) {
		if defaultValue != "" {
			return defaultValue, nil
		}
		return "", fmt.Errorf("no more input responses available for message: %s", message)
	}
	response := m.inputResponses[m.inputIndex]
	m.inputIndex++
	if response == "" {
		return defaultValue, nil
	}
	return response, nil
}

func (m *MockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if m.confirmIndex >= len(m.confirmResponses) {
		return defaultValue, nil
	}
	response := m.confirmResponses[m.confirmIndex]
	m.confirmIndex++
	return response, nil
}

func (m *MockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	if m.selectIndex >= len(m.selectResponses) {
		return defaultValue, nil
	}
	response := m.selectResponses[m.selectIndex]
	m.selectIndex++
	for _, o := range options {
		if o == response {
			return response, nil
		}
	}
	return "", fmt.Errorf("%q is not an option for: %s", response, message)
}

func (m *MockPrompter) Password(message string) (string, error) {
	if m.secretIndex >= len(m.secretResponses) {
		return "", fmt.Errorf("no more password responses available for message: %s", message)
	}
	response := m.secretResponses[m.secretIndex]
	m.secretIndex++
	return response, nil
}

func InitializeSetupScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedSetupContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		// Create temp directory for each scenario
		tempDir, err := os.MkdirTemp("", "setup-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config", "config.yaml")
		testCtx.setupCancelled = false
		testCtx.originalContent = ""
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		// Cleanup temp directory
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^no config file exists for setup$`, testCtx.noConfigFileExistsForSetup)
	ctx.Step(`^the setup config file is TOML$`, testCtx.theSetupConfigFileIsTOML)
	ctx.Step(`^a config file already exists for setup$`, testCtx.aConfigFileAlreadyExistsForSetup)
	ctx.Step(`^I run the setup command with inputs:$`, testCtx.iRunTheSetupCommandWithInputs)
	ctx.Step(`^I run the setup command with confirmation "([^"]*)"$`, testCtx.iRunTheSetupCommandWithConfirmation)
	ctx.Step(`^I run the setup command with confirmation "([^"]*)" and inputs:$`, testCtx.iRunTheSetupCommandWithConfirmationAndInputs)
	ctx.Step(`^the setup should fail with "([^"]*)"$`, testCtx.theSetupShouldFailWith)
	ctx.Step(`^I attempt the setup command with inputs:$`, testCtx.iAttemptTheSetupCommandWithInputs)
	ctx.Step(`^a config file should exist$`, testCtx.aConfigFileShouldExist)
	ctx.Step(`^the config should have backend URL "([^"]*)"$`, testCtx.theConfigShouldHaveBackendURL)
	ctx.Step(`^the config should have timeout (\d+) seconds$`, testCtx.theConfigShouldHaveTimeout)
	ctx.Step(`^the config should have default threshold "([^"]*)"$`, testCtx.theConfigShouldHaveThreshold)
	ctx.Step(`^the config should have output directory "([^"]*)"$`, testCtx.theConfigShouldHaveOutputDirectory)
	ctx.Step(`^the config should download after every submission$`, testCtx.theConfigShouldDownload)
	ctx.Step(`^the config should have auth client "([^"]*)"$`, testCtx.theConfigShouldHaveAuthClient)
	ctx.Step(`^the setup should be cancelled$`, testCtx.theSetupShouldBeCancelled)
	ctx.Step(`^the existing config should be unchanged$`, testCtx.theExistingConfigShouldBeUnchanged)
}

func (s *setupContext) noConfigFileExistsForSetup() error {
	// Just ensure the config path directory exists but no config file
	configDir := filepath.Dir(s.configPath)
	return os.MkdirAll(configDir, 0755)
}

func (s *setupContext) theSetupConfigFileIsTOML() error {
	s.configPath = strings.TrimSuffix(s.configPath, filepath.Ext(s.configPath)) + ".toml"
	return nil
}

func (s *setupContext) aConfigFileAlreadyExistsForSetup() error {
	// Create the config file with some content
	configDir := filepath.Dir(s.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	content := `backend:
  base_url: "http://original.example.com:8000"
  timeout_seconds: 120
defaults:
  threshold: 0.4
output:
  directory: "/original/audio"
`
	s.originalContent = content
	return os.WriteFile(s.configPath, []byte(content), 0644)
}

func (s *setupContext) runSetup(prompter *MockPrompter) error {
	s.err = cmd.RunSetupWithPrompter(prompter, s.configPath)
	return s.err
}

func (s *setupContext) iRunTheSetupCommandWithInputs(table *godog.Table) error {
	if err := s.runSetup(parseInputTable(table, nil)); err != nil {
		return fmt.Errorf("setup command failed: %w", err)
	}
	return nil
}

func (s *setupContext) iAttemptTheSetupCommandWithInputs(table *godog.Table) error {
	s.runSetup(parseInputTable(table, nil))
	return nil
}

func (s *setupContext) iRunTheSetupCommandWithConfirmation(confirmation string) error {
	confirm := strings.ToLower(confirmation) == "y"
	s.runSetup(NewMockPrompter([]string{}, []bool{confirm}))
	if !confirm {
		s.setupCancelled = true
	}
	return nil
}

func (s *setupContext) iRunTheSetupCommandWithConfirmationAndInputs(confirmation string, table *godog.Table) error {
	confirm := strings.ToLower(confirmation) == "y"

	// Prepend the overwrite confirmation
	if err := s.runSetup(parseInputTable(table, []bool{confirm})); err != nil {
		return fmt.Errorf("setup command failed: %w", err)
	}
	return nil
}

// parseInputTable turns a | prompt | value | table into queued answers.
// y/n values answer confirm prompts, the threshold row answers the select
// prompt, secret rows answer password prompts and everything else answers
// input prompts in order.
func parseInputTable(table *godog.Table, confirms []bool) *MockPrompter {
	var inputs, selects, secrets []string

	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header row
		}
		prompt := strings.ToLower(row.Cells[0].Value)
		value := row.Cells[1].Value

		switch {
		case strings.Contains(prompt, "threshold"):
			selects = append(selects, value)
		case strings.Contains(prompt, "secret"):
			secrets = append(secrets, value)
		case value == "y" || value == "n":
			confirms = append(confirms, value == "y")
		default:
			inputs = append(inputs, value)
		}
	}

	m := NewMockPrompter(inputs, confirms).WithSelections(selects...)
	m.secretResponses = secrets
	return m
}

func (s *setupContext) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (s *setupContext) aConfigFileShouldExist() error {
	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist at %s", s.configPath)
	}
	return nil
}

func (s *setupContext) theSetupShouldFailWith(message string) error {
	if s.err == nil {
		return fmt.Errorf("expected setup to fail")
	}
	if !strings.Contains(s.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got %q", message, s.err.Error())
	}
	return nil
}

func (s *setupContext) theConfigShouldHaveBackendURL(expected string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Backend.BaseURL != expected {
		return fmt.Errorf("expected base_url %q, got %q", expected, cfg.Backend.BaseURL)
	}
	return nil
}

func (s *setupContext) theConfigShouldHaveTimeout(expected int) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Backend.TimeoutSeconds != expected {
		return fmt.Errorf("expected timeout_seconds %d, got %d", expected, cfg.Backend.TimeoutSeconds)
	}
	return nil
}

func (s *setupContext) theConfigShouldHaveThreshold(expected string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if got := cfg.Threshold().String(); got != expected {
		return fmt.Errorf("expected threshold %q, got %q", expected, got)
	}
	return nil
}

func (s *setupContext) theConfigShouldHaveOutputDirectory(expected string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Output.Directory != expected {
		return fmt.Errorf("expected output directory %q, got %q", expected, cfg.Output.Directory)
	}
	return nil
}

func (s *setupContext) theConfigShouldDownload() error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Output.Download {
		return fmt.Errorf("expected output.download to be true")
	}
	return nil
}

func (s *setupContext) theConfigShouldHaveAuthClient(expected string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Backend.Auth.ClientID != expected {
		return fmt.Errorf("expected auth client %q, got %q", expected, cfg.Backend.Auth.ClientID)
	}
	return nil
}

func (s *setupContext) theSetupShouldBeCancelled() error {
	if !s.setupCancelled {
		return fmt.Errorf("expected setup to be cancelled")
	}
	return nil
}

func (s *setupContext) theExistingConfigShouldBeUnchanged() error {
	content, err := os.ReadFile(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if string(content) != s.originalContent {
		return fmt.Errorf("config content was changed")
	}
	return nil
}
