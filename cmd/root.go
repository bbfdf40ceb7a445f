package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"video-beeper/infrastructure/config"
	"video-beeper/infrastructure/logging"

	"github.com/spf13/cobra"
)

// DefaultConfigPath is used when --config is not given
const DefaultConfigPath = "config/config.yaml"

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
	cfgErr   error
)

// errReported marks failures whose message was already printed to the
// command output, so Execute only sets the exit code
var errReported = errors.New("already reported")

var rootCmd = &cobra.Command{
	Use:   "video-beeper",
	Short: "Beep profanity out of a video's audio track",
	Long: `video-beeper uploads a video to the profanity processing service and
shows the result:

  - The words that were beeped
  - The beeped audio track, ready to play or download

Example:
  video-beeper submit --file clip.mp4 --threshold 0.7 --download`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, .yaml or .toml (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = DefaultConfigPath
	}

	// A missing file means defaults; a broken one is reported by commands
	// that need config
	cfg, cfgErr = config.LoadOrDefault(cfgFile)
	if cfgErr != nil {
		cfg = nil
	}
}

// requireConfig returns the loaded configuration or the reason it failed
func requireConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	if cfg == nil {
		return config.Default(), nil
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger; user-facing output never goes here
func newLogger(c *config.Config) (*slog.Logger, error) {
	level := c.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: c.Logging.Format,
		Output: os.Stderr,
	})
}

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}
