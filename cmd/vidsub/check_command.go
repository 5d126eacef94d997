package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidsub/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	var report string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify dependencies, directories, and API access",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validateReportFormat(report)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{Remote: !offline})
			if format != reportTable {
				if err := writeStructured(cmd, format, results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := "OK"
					if !r.Passed {
						status = "FAIL"
					}
					rows = append(rows, []string{r.Name, status, r.Detail})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"Check", "Status", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed: %w", len(failed), errReported)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the API reachability check")
	cmd.Flags().StringVar(&report, "report", reportTable, "Output format (table, json, yaml)")
	return cmd
}
