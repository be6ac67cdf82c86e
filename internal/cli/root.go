// Package cli provides the command-line interface for quench.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quench-dev/quench/internal/cli/commands"
	"github.com/quench-dev/quench/internal/cli/output"
	"github.com/quench-dev/quench/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quench",
		Short: "Quench - quality ratchet for polyglot codebases",
		Long: `Quench keeps escape hatches and lint suppressions justified, and
ratchets quality metrics so they only improve.

It scans the project's source for constructs like unsafe blocks,
@ts-ignore and //nolint directives, checks each against the configured
suppression policy, and compares aggregate metrics to an accepted
baseline stored alongside the repository metadata.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err = config.Load(wd, cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cfg.Verbose)
			mode, _ := cmd.Root().PersistentFlags().GetString("output")
			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(mode))
			cmd.SetContext(commands.NewContext(cmd.Context(), cfg, renderer, logger))

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./quench.yaml, searched upward)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "auto", "Output format (auto|text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewRatchetCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))

	return rootCmd
}

// newLogger builds the run logger. Warnings always surface; debug detail is
// gated on verbose mode.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command and returns the process exit code.
// Check failures map to their run severity; configuration and argument
// errors exit 2.
func Execute() int {
	return exitCode(os.Stderr, NewRootCmd().Execute())
}

// exitCode maps a command error to the process exit code. Run severities
// carry their own code; anything else is a configuration or argument error.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var sev *commands.SeverityError
	if errors.As(err, &sev) {
		return sev.Code
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return 2
}
