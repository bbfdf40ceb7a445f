package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"video-beeper/domain/video"
	"video-beeper/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
	Password(message string) (string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	// survey rejects a default that is not one of the options
	for _, o := range options {
		if o == defaultValue {
			prompt.Default = defaultValue
			break
		}
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Password(message string) (string, error) {
	result := ""
	prompt := &survey.Password{
		Message: message,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates the config file.

This command guides you through setting up the processing service address,
request timeout, default threshold and where downloaded audio is saved.
A --config path ending in .toml writes TOML instead of YAML.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	return RunSetupWithPrompter(DefaultPrompter, cfgFile)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm(filepath.Base(configPath)+" already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	fmt.Println("Welcome to video-beeper setup!")
	fmt.Println()

	cfg := &config.Config{}

	// Backend section
	if err := promptBackend(prompter, cfg); err != nil {
		return err
	}

	// Defaults section
	if err := promptDefaults(prompter, cfg); err != nil {
		return err
	}

	// Output section
	if err := promptOutput(prompter, cfg); err != nil {
		return err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Save configuration
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", configPath)
	return nil
}

func promptBackend(prompter Prompter, cfg *config.Config) error {
	baseURL, err := prompter.Input("Processing service URL?", config.DefaultBaseURL)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if baseURL == "" {
		return fmt.Errorf("processing service URL is required")
	}
	cfg.Backend.BaseURL = baseURL

	timeout, err := prompter.Input("Request timeout in seconds?", strconv.Itoa(config.DefaultTimeoutSeconds))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if timeout != "" {
		seconds, err := strconv.Atoi(timeout)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("timeout must be a positive number of seconds")
		}
		cfg.Backend.TimeoutSeconds = seconds
	}

	useAuth, err := prompter.Confirm("Does the service require OAuth client credentials?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !useAuth {
		return nil
	}

	tokenURL, err := prompter.Input("  Token URL:", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if tokenURL == "" {
		return fmt.Errorf("token URL is required")
	}
	clientID, err := prompter.Input("  Client ID:", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if clientID == "" {
		return fmt.Errorf("client ID is required")
	}
	clientSecret, err := prompter.Password("  Client secret:")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Backend.Auth = config.AuthConfig{
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
	return nil
}

func promptDefaults(prompter Prompter, cfg *config.Config) error {
	choice, err := prompter.Select("Default profanity threshold?", video.ThresholdChoices(), video.DefaultThreshold.String())
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	threshold, err := video.ParseThreshold(choice)
	if err != nil {
		return err
	}
	v := threshold.Float64()
	cfg.Defaults.Threshold = &v
	return nil
}

func promptOutput(prompter Prompter, cfg *config.Config) error {
	dir, err := prompter.Input("Where should downloaded audio go?", ".")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Output.Directory = strings.TrimSpace(dir)

	download, err := prompter.Confirm("Download beeped audio after every submission?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Output.Download = download
	return nil
}
