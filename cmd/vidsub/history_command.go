package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"vidsub/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var report string
	var batchID string
	var pruneDays int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently processed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validateReportFormat(report)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.HistoryPath()
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "No history recorded yet")
				return nil
			}
			store, err := ledger.Open(path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			if pruneDays > 0 {
				removed, err := store.Prune(cmd.Context(), time.Now().AddDate(0, 0, -pruneDays))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries older than %d days\n", removed, pruneDays)
				return nil
			}

			var entries []ledger.Entry
			if batchID != "" {
				entries, err = store.Batch(cmd.Context(), batchID)
			} else {
				entries, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if format != reportTable {
				if entries == nil {
					entries = []ledger.Entry{}
				}
				return writeStructured(cmd, format, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				detail := e.Output
				if e.Status == ledger.StatusFailed {
					detail = truncate(e.ErrorKind+": "+e.ErrorMessage, 80)
				}
				rows = append(rows, []string{
					e.FinishedAt.Local().Format("2006-01-02 15:04"),
					string(e.Status),
					filepath.Base(e.Input),
					e.Format,
					strconv.Itoa(e.Cues),
					detail,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"Finished", "Status", "Input", "Format", "Cues", "Output / Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().StringVar(&batchID, "batch", "", "Show only the entries of one batch")
	cmd.Flags().IntVar(&pruneDays, "prune", 0, "Delete entries older than this many days instead of listing")
	cmd.Flags().StringVar(&report, "report", reportTable, "Output format (table, json, yaml)")
	return cmd
}
