//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-beeper/cmd"
	"video-beeper/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	cfg        *config.Config
	loadErr    error
	setErr     error
	output     bytes.Buffer
}

// SharedConfigContext is reset before each scenario via Before hook
var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		SharedConfigContext = &configContext{tempDir: tempDir}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedConfigContext.tempDir != "" {
			os.RemoveAll(SharedConfigContext.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a configuration file "([^"]*)" containing:$`, func(name string, doc *godog.DocString) error {
		return SharedConfigContext.aConfigurationFileContaining(name, doc)
	})
	ctx.Step(`^no configuration file "([^"]*)" exists$`, func(name string) error {
		return SharedConfigContext.noConfigurationFileExists(name)
	})
	ctx.Step(`^I load the configuration$`, func() error { return SharedConfigContext.iLoadTheConfiguration() })
	ctx.Step(`^I attempt to load the configuration$`, func() error { return SharedConfigContext.iAttemptToLoadTheConfiguration() })
	ctx.Step(`^I set config "([^"]*)" to "([^"]*)"$`, func(key, value string) error {
		return SharedConfigContext.iSetConfig(key, value)
	})
	ctx.Step(`^the backend URL should be "([^"]*)"$`, func(v string) error { return SharedConfigContext.theBackendURLShouldBe(v) })
	ctx.Step(`^the request timeout should be (\d+) seconds$`, func(v int) error { return SharedConfigContext.theTimeoutShouldBe(v) })
	ctx.Step(`^the default threshold should be "([^"]*)"$`, func(v string) error { return SharedConfigContext.theThresholdShouldBe(v) })
	ctx.Step(`^the download filename should be "([^"]*)"$`, func(v string) error { return SharedConfigContext.theFilenameShouldBe(v) })
	ctx.Step(`^I should receive a configuration error mentioning "([^"]*)"$`, func(v string) error {
		return SharedConfigContext.iShouldReceiveAConfigurationError(v)
	})
	ctx.Step(`^the config set should fail$`, func() error { return SharedConfigContext.theConfigSetShouldFail() })
}

func (c *configContext) aConfigurationFileContaining(name string, doc *godog.DocString) error {
	c.configPath = filepath.Join(c.tempDir, name)
	return os.WriteFile(c.configPath, []byte(doc.Content), 0644)
}

func (c *configContext) noConfigurationFileExists(name string) error {
	c.configPath = filepath.Join(c.tempDir, name)
	return nil
}

func (c *configContext) iLoadTheConfiguration() error {
	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return fmt.Errorf("unexpected error loading config: %w", err)
	}
	c.cfg = cfg
	return nil
}

func (c *configContext) iAttemptToLoadTheConfiguration() error {
	cfg, err := config.LoadOrDefault(c.configPath)
	c.cfg = cfg
	c.loadErr = err
	return nil
}

func (c *configContext) iSetConfig(key, value string) error {
	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return err
	}
	c.setErr = cmd.RunConfigSetWithDependencies(cfg, c.configPath, key, value, &c.output)
	return c.iAttemptToLoadTheConfiguration()
}

func (c *configContext) loaded() (*config.Config, error) {
	if c.cfg == nil {
		return nil, fmt.Errorf("config was not loaded")
	}
	return c.cfg, nil
}

func (c *configContext) theBackendURLShouldBe(expected string) error {
	cfg, err := c.loaded()
	if err != nil {
		return err
	}
	if cfg.Backend.BaseURL != expected {
		return fmt.Errorf("expected backend URL %q, got %q", expected, cfg.Backend.BaseURL)
	}
	return nil
}

func (c *configContext) theTimeoutShouldBe(expected int) error {
	cfg, err := c.loaded()
	if err != nil {
		return err
	}
	if cfg.Backend.TimeoutSeconds != expected {
		return fmt.Errorf("expected timeout %d, got %d", expected, cfg.Backend.TimeoutSeconds)
	}
	return nil
}

func (c *configContext) theThresholdShouldBe(expected string) error {
	cfg, err := c.loaded()
	if err != nil {
		return err
	}
	if got := cfg.Threshold().String(); got != expected {
		return fmt.Errorf("expected threshold %q, got %q", expected, got)
	}
	return nil
}

func (c *configContext) theFilenameShouldBe(expected string) error {
	cfg, err := c.loaded()
	if err != nil {
		return err
	}
	if cfg.Output.Filename != expected {
		return fmt.Errorf("expected filename %q, got %q", expected, cfg.Output.Filename)
	}
	return nil
}

func (c *configContext) iShouldReceiveAConfigurationError(fragment string) error {
	if c.loadErr == nil {
		return fmt.Errorf("expected an error but got none")
	}
	if !strings.Contains(c.loadErr.Error(), fragment) {
		return fmt.Errorf("expected error mentioning %q, got %q", fragment, c.loadErr.Error())
	}
	return nil
}

func (c *configContext) theConfigSetShouldFail() error {
	if c.setErr == nil {
		return fmt.Errorf("expected config set to fail")
	}
	return nil
}
