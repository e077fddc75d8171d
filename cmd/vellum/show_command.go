package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vellum/internal/api"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Show full detail for one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			resp, err := api.DescribeEntry(cmd.Context(), cfg, id)
			if err != nil {
				return err
			}
			if resp == nil {
				return fmt.Errorf("entry %s not found", id)
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}

			entry := resp.Entry
			rows := [][]string{
				{"ID", entry.ID},
				{"File", entry.FilePath},
				{"Size", fmt.Sprintf("%d bytes", entry.FileSize)},
				{"Stage", entry.Stage},
				{"Document type", entry.DocumentType},
				{"Detection confidence", fmt.Sprintf("%.2f", entry.DetectionConfidence)},
				{"Pages", fmt.Sprintf("%d", entry.PageCount)},
				{"Fallback extraction", yesNo(entry.ExtractionFallback)},
				{"Category", entry.Category},
				{"Category confidence", fmt.Sprintf("%.2f", entry.CategoryConfidence)},
				{"Index ref", entry.IndexRef},
				{"Attempts", fmt.Sprintf("%d", entry.Attempts)},
				{"Duration", fmt.Sprintf("%d ms", entry.DurationMs)},
				{"Created", entry.CreatedAt},
				{"Updated", entry.UpdatedAt},
			}
			if entry.Error != nil {
				rows = append(rows,
					[]string{"Error kind", entry.Error.Kind},
					[]string{"Error stage", entry.Error.Stage},
					[]string{"Error message", entry.Error.Message},
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
