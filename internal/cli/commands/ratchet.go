package commands

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/quench-dev/quench/internal/ratchet"
	"github.com/quench-dev/quench/internal/runner"
)

// NewRatchetCommand creates the ratchet command group.
func NewRatchetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratchet",
		Short: "Manage the metric baseline",
		Long: `The ratchet records the best-known value of every tracked metric and
fails a run when a metric regresses past it. The baseline lives under the
repository's .git directory, so it follows the clone rather than the
working tree.`,
	}
	cmd.AddCommand(newRatchetAcceptCommand())
	cmd.AddCommand(newRatchetShowCommand())
	return cmd
}

func newRatchetAcceptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accept",
		Short: "Accept the current metrics as the new baseline",
		Long: `Run the checks, then rewrite the baseline from the current tracked
metrics. The accept is refused outright if any tracked metric is worse
than the baseline it would replace.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := newCommandContext(cmd)
			if err != nil {
				return err
			}
			cfg := cmdCtx.Cfg

			report, err := runner.New(cfg, cmdCtx.Logger).Run(cmd.Context())
			if err != nil {
				return err
			}

			store := ratchet.NewStore(cfg.Project.Root, cfg.Cache.Dir)
			commit := ratchet.GitCommit(cmd.Context(), cfg.Project.Root)
			if err := ratchet.Accept(store, report.Metrics, commit); err != nil {
				if errors.Is(err, ratchet.ErrConflict) {
					return fmt.Errorf("baseline changed during the run, re-run accept: %w", err)
				}
				return err
			}

			tracked := 0
			for name := range report.Metrics {
				if ratchet.Tracked(name) {
					tracked++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline accepted: %d tracked metrics", tracked)
			if commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " at %s", commit)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

func newRatchetShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the accepted baseline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := newCommandContext(cmd)
			if err != nil {
				return err
			}
			cfg := cmdCtx.Cfg

			store := ratchet.NewStore(cfg.Project.Root, cfg.Cache.Dir)
			baseline, err := store.Load()
			if err != nil {
				return err
			}
			if len(baseline.Metrics) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No baseline accepted yet. Run 'quench ratchet accept'.")
				return nil
			}

			if baseline.Commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Accepted at commit %s (%s)\n\n",
					baseline.Commit, baseline.Updated.Format("2006-01-02 15:04:05 MST"))
			}
			names := make([]string, 0, len(baseline.Metrics))
			for name := range baseline.Metrics {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %g\n", name, baseline.Metrics[name])
			}
			return nil
		},
	}
}
