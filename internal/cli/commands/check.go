package commands

import (
	"github.com/spf13/cobra"

	"github.com/quench-dev/quench/internal/cli/output"
	"github.com/quench-dev/quench/internal/runner"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Format  string // Output format: text, json
	NoLimit bool   // Report every violation, ignoring check.limit
	NoCache bool   // Rescan every file, ignoring the result cache
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run quality checks against the project",
		Long: `Discover, classify and scan the project's files, run every enabled
check, and compare tracked metrics against the accepted baseline.

Exit codes: 0 all checks passed, 1 violations found, 2 configuration
error, 3 a check crashed.`,
		Example: `  # Run all checks
  quench check

  # Machine-readable output
  quench check --format json

  # Report every violation
  quench check --no-limit`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.NoLimit, "no-limit", false, "Report every violation")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Rescan every file")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions) error {
	cmdCtx, err := newCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg, r := cmdCtx.Cfg, cmdCtx.Renderer

	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}
	if opts.NoLimit {
		unlimited := 0
		cfg.Check.Limit = &unlimited
	}
	if opts.NoCache {
		off := false
		cfg.Cache.Enabled = &off
	}

	report, err := runner.New(cfg, cmdCtx.Logger).Run(cmd.Context())
	if err != nil {
		r.Errorf("%v", err)
		return &SeverityError{Code: int(runner.SeverityConfig)}
	}
	if err := r.Report(report); err != nil {
		return err
	}
	if report.Severity != runner.SeverityOK {
		return &SeverityError{Code: int(report.Severity)}
	}
	return nil
}
