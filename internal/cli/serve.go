package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/erratas/internal/entrypoint"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(ctx)
		},
	}
}

func runServe(ctx *commandContext) error {
	return entrypoint.Run(ctx.cfg, ctx.logger, ctx.version)
}
