package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/wishlist-backend/internal/app"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	EnvFiles []string
}

func (o *RootOptions) load() (app.Config, *logger.Logger, error) {
	cfg, err := app.LoadConfig(o.EnvFiles...)
	if err != nil {
		return app.Config{}, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	serve := NewServeCommand(opts)

	cmd := &cobra.Command{
		Use:           "wishlist",
		Short:         "Wishlist backend API",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand serves the API.
		RunE: serve.RunE,
	}
	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "dotenv file(s) to load before reading the environment (default .env)")

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
