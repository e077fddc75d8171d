package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vellum/internal/api"
	"vellum/internal/deps"
	"vellum/internal/logging"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe stage readiness and external dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			checks, err := api.HealthChecks(cmd.Context(), cfg, logging.NewNop())
			if err != nil {
				return err
			}
			dependencies := api.FromDependencyStatuses(deps.CheckBinaries(deps.Requirements(cfg)))

			if asJSON {
				return writeJSON(cmd, map[string]any{
					"stages":       checks,
					"dependencies": dependencies,
				})
			}

			out := cmd.OutOrStdout()
			stageRows := make([][]string, 0, len(checks))
			for _, check := range checks {
				stageRows = append(stageRows, []string{check.Name, yesNo(check.Ready), check.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Stage", "Ready", "Detail"}, stageRows))

			depRows := make([][]string, 0, len(dependencies))
			for _, dep := range dependencies {
				depRows = append(depRows, []string{dep.Name, yesNo(dep.Available), dep.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Dependency", "Available", "Detail"}, depRows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of tables")
	return cmd
}
