// Package cli implements the erratas command line.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mrlokans/erratas/internal/config"
	"github.com/mrlokans/erratas/internal/kobo"
	"github.com/mrlokans/erratas/internal/library"
	"github.com/mrlokans/erratas/internal/logging"
)

type commandContext struct {
	version   string
	logLevel  string
	logFormat string
	envFiles  []string

	cfg    *config.Config
	logger *slog.Logger
}

// init loads .env files and the environment configuration, then builds the
// logger. Flags override the environment.
func (ctx *commandContext) init(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(ctx.envFiles...); err != nil {
		return err
	}
	ctx.cfg = config.NewConfig()

	if cmd.Flags().Changed("log-level") {
		ctx.cfg.Log.Level = ctx.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		ctx.cfg.Log.Format = ctx.logFormat
	}

	logger, err := logging.New(logging.Options{
		Level:  ctx.cfg.Log.Level,
		Format: ctx.cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	ctx.logger = logger
	slog.SetDefault(logger)
	return nil
}

func (ctx *commandContext) registry() (*library.Registry, error) {
	return library.NewRegistry(kobo.Descriptor())
}

// NewRootCommand builds the erratas command tree. Without a subcommand the
// HTTP server is started.
func NewRootCommand(version string) *cobra.Command {
	ctx := &commandContext{version: version}

	rootCmd := &cobra.Command{
		Use:           "erratas",
		Short:         "Review e-reader highlights as errata reports",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(ctx)
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&ctx.logFormat, "log-format", "console", "Log format (console, json)")
	rootCmd.PersistentFlags().StringSliceVar(&ctx.envFiles, "env-file", nil, "Environment files to load (default .env)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newBooksCommand(ctx))
	rootCmd.AddCommand(newErrataCommand(ctx))
	rootCmd.AddCommand(newReportCommand(ctx))
	rootCmd.AddCommand(newDeleteCommand(ctx))
	rootCmd.AddCommand(newFormatsCommand(ctx))

	return rootCmd
}
