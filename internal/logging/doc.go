// Package logging assembles structured slog loggers and formatting helpers used
// across vidsub.
//
// It owns the console/JSON handlers and the optional log file copy, and exposes
// context-aware helpers so pipeline code tags log lines with batch IDs, job
// inputs, stages, and correlation IDs. A no-op logger is provided for tests.
package logging
