// Package commands implements the quench subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quench-dev/quench/internal/cli/output"
	"github.com/quench-dev/quench/internal/config"
)

type configKey struct{}
type rendererKey struct{}
type loggerKey struct{}

// SeverityError carries the run's exit severity through cobra's error path.
type SeverityError struct {
	Code int
}

func (e *SeverityError) Error() string {
	return fmt.Sprintf("run finished with severity %d", e.Code)
}

// NewContext stores the loaded config, renderer and logger for subcommands.
// Called by the root command after configuration loads.
func NewContext(ctx context.Context, cfg *config.Config, r output.Renderer, logger *slog.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey{}, cfg)
	ctx = context.WithValue(ctx, rendererKey{}, r)
	return context.WithValue(ctx, loggerKey{}, logger)
}

// commandContext unpacks the shared run dependencies for a subcommand.
type commandContext struct {
	Cfg      *config.Config
	Renderer output.Renderer
	Logger   *slog.Logger
}

func newCommandContext(cmd *cobra.Command) (*commandContext, error) {
	ctx := cmd.Context()
	cfg, _ := ctx.Value(configKey{}).(*config.Config)
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	r, _ := ctx.Value(rendererKey{}).(output.Renderer)
	logger, _ := ctx.Value(loggerKey{}).(*slog.Logger)
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &commandContext{Cfg: cfg, Renderer: r, Logger: logger}, nil
}
