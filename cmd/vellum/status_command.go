package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"vellum/internal/api"
	"vellum/internal/ledger"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pipeline summary and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status, err := api.Status(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ledger: %s\n\n", status.LedgerPath)

			summaryRows := [][]string{
				{"Total", fmt.Sprintf("%d", status.Summary.Total)},
				{"Discovered", fmt.Sprintf("%d", status.Summary.Discovered)},
				{"In flight", fmt.Sprintf("%d", status.Summary.InFlight)},
				{"Completed", fmt.Sprintf("%d", status.Summary.Completed)},
				{"Failed", fmt.Sprintf("%d", status.Summary.Failed)},
				{"Success rate", fmt.Sprintf("%.1f%%", status.Summary.SuccessRate)},
			}
			fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, summaryRows, 1))

			stageRows := make([][]string, 0, len(status.Stages))
			for _, s := range ledger.AllStages() {
				stageRows = append(stageRows, []string{string(s), fmt.Sprintf("%d", status.Stages[string(s)])})
			}
			fmt.Fprintln(out, renderTable([]string{"Stage", "Entries"}, stageRows, 1))

			if len(status.Dependencies) > 0 {
				depRows := make([][]string, 0, len(status.Dependencies))
				sorted := append([]api.DependencyStatus(nil), status.Dependencies...)
				sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
				for _, dep := range sorted {
					depRows = append(depRows, []string{dep.Name, yesNo(dep.Available), dep.Detail})
				}
				fmt.Fprintln(out, renderTable([]string{"Dependency", "Available", "Detail"}, depRows))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of tables")
	return cmd
}
