package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"vidsub/internal/batch"
)

const (
	reportTable = "table"
	reportJSON  = "json"
	reportYAML  = "yaml"
)

func validateReportFormat(value string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "", reportTable:
		return reportTable, nil
	case reportJSON, reportYAML:
		return v, nil
	default:
		return "", fmt.Errorf("unsupported report format %q (want table, json, or yaml)", value)
	}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML encodes v as YAML to the command's stdout.
func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeStructured(cmd *cobra.Command, format string, v any) error {
	if format == reportYAML {
		return writeYAML(cmd, v)
	}
	return writeJSON(cmd, v)
}

func renderSummary(cmd *cobra.Command, format string, summary batch.Summary) error {
	if format != reportTable {
		return writeStructured(cmd, format, summary)
	}
	out := cmd.OutOrStdout()
	if len(summary.Jobs) > 0 {
		rows := make([][]string, 0, len(summary.Jobs))
		for _, job := range summary.Jobs {
			rows = append(rows, []string{
				filepath.Base(job.Input),
				statusLabel(job),
				strconv.Itoa(job.Cues),
				formatDuration(job.Duration),
				jobDetail(job),
			})
		}
		fmt.Fprintln(out, renderTable(out,
			[]string{"Input", "Status", "Cues", "Time", "Output / Error"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		))
	}
	fmt.Fprintf(out, "Batch %s: %d done (%d skipped), %d failed in %s\n",
		summary.BatchID, summary.Done, summary.Skipped, summary.Failed, formatDuration(summary.Elapsed))
	return nil
}

func statusLabel(job batch.JobResult) string {
	if job.Skipped {
		return "skipped"
	}
	return string(job.Status)
}

func jobDetail(job batch.JobResult) string {
	if job.Status == batch.StatusFailed {
		return truncate(job.Error, 100)
	}
	return job.Output
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

func printResultLine(w io.Writer, result batch.JobResult) {
	switch {
	case result.Status == batch.StatusFailed:
		fmt.Fprintf(w, "FAIL %s: %s\n", result.Input, result.Error)
	case result.Skipped:
		fmt.Fprintf(w, "SKIP %s (up to date)\n", result.Input)
	default:
		fmt.Fprintf(w, "OK   %s -> %s\n", result.Input, result.Output)
	}
}
