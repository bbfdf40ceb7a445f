package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"video-beeper/infrastructure/config"

	"github.com/spf13/cobra"
)

// DefaultOutput is the default output writer for config commands
var DefaultOutput OutputWriter = os.Stdout

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration entries",
	Long: `Show the effective configuration or change a single entry in the config file.

Examples:
  video-beeper config show
  video-beeper config set backend-url http://beeper.local:8000
  video-beeper config set threshold 0.7
  video-beeper config set output-dir ~/Music`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	// Add subcommands
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- SHOW command ---

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	return RunConfigShowWithDependencies(c, cfgFile, DefaultOutput)
}

// RunConfigShowWithDependencies runs the show command with injected dependencies
func RunConfigShowWithDependencies(cfg *config.Config, configPath string, out OutputWriter) error {
	mgr := config.NewManager(cfg, configPath)

	fmt.Fprintf(out, "Config file: %s\n\n", configPath)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	for _, e := range mgr.Entries() {
		fmt.Fprintf(w, "%s\t%s\n", e.Key, e.Value)
	}
	if cfg.Backend.Auth.TokenURL != "" {
		fmt.Fprintf(w, "%s\t%s\n", "auth", cfg.Backend.Auth.ClientID+" @ "+cfg.Backend.Auth.TokenURL)
	}
	return w.Flush()
}

// --- SET command ---

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a config entry",
	Long: `Change a single config entry and save the config file.

Keys: backend-url, endpoint-path, filename, log-format, log-level,
output-dir, threshold, timeout

Examples:
  video-beeper config set timeout 600
  video-beeper config set log-format json`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}

	return RunConfigSetWithDependencies(c, cfgFile, args[0], args[1], DefaultOutput)
}

// RunConfigSetWithDependencies runs the set command with injected dependencies
func RunConfigSetWithDependencies(cfg *config.Config, configPath, key, value string, out OutputWriter) error {
	mgr := config.NewManager(cfg, configPath)

	if err := mgr.Set(key, value); err != nil {
		return err
	}

	fmt.Fprintf(out, "Set %s = %s\n", key, value)
	return nil
}
