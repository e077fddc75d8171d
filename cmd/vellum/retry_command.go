package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vellum/internal/api"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [entry-id...]",
		Short: "Reset failed entries to the start of the pipeline",
		Long: "Reset failed entries so the next daemon start or batch run picks " +
			"them up from the beginning. Without arguments every failed entry " +
			"is reset.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			count, err := api.RetryEntries(cmd.Context(), cfg, args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %d entries for retry\n", count)
			return nil
		},
	}
}
