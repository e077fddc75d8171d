package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vellum/internal/api"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var stages []string
	var limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			page, err := api.ListEntries(cmd.Context(), cfg, api.ListRequest{
				Stages: stages,
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, page)
			}

			if len(page.Entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entries found")
				return nil
			}
			colorize := shouldColorize(cmd.OutOrStdout())
			rows := make([][]string, 0, len(page.Entries))
			for _, entry := range page.Entries {
				detail := entry.Category
				if entry.Error != nil {
					detail = entry.Error.Kind
				}
				rows = append(rows, []string{
					entry.ID,
					entry.FileName,
					stageCell(entry.Stage, colorize),
					entry.DocumentType,
					detail,
					fmt.Sprintf("%d", entry.Attempts),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "File", "Stage", "Type", "Category/Error", "Attempts"},
				rows, 5,
			))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&stages, "stage", nil, "Filter by stage (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset into the result set")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
