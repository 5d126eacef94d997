package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidsub/internal/logging"
	"vidsub/internal/services"
)

func TestConsoleLoggerWritesComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "batch").Info("job done", logging.String("output", "/tmp/a b.srt"))

	line := buf.String()
	if !strings.Contains(line, "INFO batch: job done") {
		t.Fatalf("expected level, component and message, got %q", line)
	}
	if !strings.Contains(line, `output="/tmp/a b.srt"`) {
		t.Fatalf("expected quoted attr, got %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no colour codes for non-terminal writer, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestConsoleLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithBatchID(context.Background(), "b-1")
	ctx = services.WithJob(ctx, "/videos/a.mp4")
	ctx = services.WithStage(ctx, "transcribing")
	logging.WithContext(ctx, logger).Info("uploading")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if record["level"] != "info" || record["msg"] != "uploading" {
		t.Fatalf("unexpected record %v", record)
	}
	if record[logging.FieldBatchID] != "b-1" || record[logging.FieldJob] != "/videos/a.mp4" || record[logging.FieldStage] != "transcribing" {
		t.Fatalf("missing context fields in %v", record)
	}
}

func TestLoggerCopiesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "vidsub.log")
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Writer: &buf, File: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("to both")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "to both") || !strings.Contains(buf.String(), "to both") {
		t.Fatalf("expected record in console and file, got %q / %q", buf.String(), content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "retrying", "transcription_retry")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := record[key]; !ok {
			t.Fatalf("expected %s in %v", key, record)
		}
	}
}

func TestErrorWithContextKeepsCallerHint(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.ErrorWithContext(logger, "failed to record job outcome", "history_record_failed",
		logging.String(logging.FieldErrorHint, "check the state directory is writable"),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["level"] != "error" || record[logging.FieldEventType] != "history_record_failed" {
		t.Fatalf("unexpected record %v", record)
	}
	if record[logging.FieldErrorHint] != "check the state directory is writable" {
		t.Fatalf("caller hint replaced: %v", record)
	}
}
