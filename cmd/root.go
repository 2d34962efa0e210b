package cmd

import (
	"fmt"

	"github.com/mj1618/desktop-flow/internal/config"
	"github.com/mj1618/desktop-flow/internal/logging"
	"github.com/mj1618/desktop-flow/internal/output"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/mj1618/desktop-flow/cmd.Version=...".
var Version = "dev"

// appConfig is loaded by the root command before any subcommand runs.
var appConfig = config.Default()

var rootCmd = &cobra.Command{
	Use:   "desktop-flow",
	Short: "Run recorded desktop automation flows",
	Long: `Run flows of UI automation steps against the desktop. Each step finds its
target on screen (by image match or fixed coordinates), clicks or hovers there,
then types text, presses keys or scrolls. Flows are grouped into workflows.`,
	SilenceUsage: true,
}

// Root returns the root command for main to execute.
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().String("config", "", "Config file (default: $XDG_CONFIG_HOME/desktop-flow/config.yaml)")
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Indent JSON output")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default: from config)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		path, _ := rootCmd.PersistentFlags().GetString("config")
		if path == "" {
			path = config.DefaultPath()
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}

		level, _ := rootCmd.PersistentFlags().GetString("log-level")
		if level != "" {
			cfg.LogLevel = level
		}
		if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
			return err
		}
		appConfig = cfg

		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")
		return nil
	}
}
