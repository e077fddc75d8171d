package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vellum/internal/api"
	"vellum/internal/config"
	"vellum/internal/logging"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "Process a batch of PDFs or directories to completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			paths := make([]string, 0, len(args))
			for _, arg := range args {
				expanded, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				paths = append(paths, expanded)
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if err := api.RunBatch(cmd.Context(), cfg, logger, paths, recursive); err != nil {
				return err
			}

			status, err := api.Status(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Batch finished: %d completed, %d failed (%.1f%% success)\n",
				status.Summary.Completed, status.Summary.Failed, status.Summary.SuccessRate)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	return cmd
}
