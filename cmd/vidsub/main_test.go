package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidsub/internal/batch"
	"vidsub/internal/ledger"
	"vidsub/internal/preflight"
)

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GROQ_API_KEY", "")

	target := filepath.Join(t.TempDir(), "vidsub", "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "API key set: no")
}

func TestConfigShowRedactsAPIKey(t *testing.T) {
	env := setupCLITestEnv(t, "test")

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "<redacted>")
	requireContains(t, out, env.server.URL)
}

func TestInvalidConfigIsRejected(t *testing.T) {
	env := setupCLITestEnv(t, "test")
	if err := os.WriteFile(env.configPath, []byte("[output]\nformat = \"ass\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err == nil {
		t.Fatal("expected validation error for unsupported format")
	}
}

func TestCheckPassesWithStubs(t *testing.T) {
	env := setupCLITestEnv(t, "test")

	out, _, err := runCLI(t, []string{"check", "--report", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	var results []preflight.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode check output: %v\n%s", err, out)
	}
	names := make([]string, 0, len(results))
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("check %q failed: %s", r.Name, r.Detail)
		}
		names = append(names, r.Name)
	}
	requireContains(t, strings.Join(names, ","), "Transcription API")
}

func TestCheckReportsRejectedKey(t *testing.T) {
	env := setupCLITestEnv(t, "wrong")

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported failure, got %v", err)
	}
	requireContains(t, out, "FAIL")
	requireContains(t, out, "API key rejected")

	if _, _, err := runCLI(t, []string{"check", "--offline"}, env.configPath); err != nil {
		t.Fatalf("offline check should not contact the API: %v", err)
	}
}

func TestProcessWritesSubtitles(t *testing.T) {
	env := setupCLITestEnv(t, "test")
	dir := env.videoDir(t, "a.mp4", "b.mkv", "notes.txt")

	out, _, err := runCLI(t, []string{"process", dir, "--report", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v\n%s", err, out)
	}
	var summary batch.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.Done != 2 || summary.Failed != 0 || len(summary.Jobs) != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if got := env.uploads.Load(); got != 2 {
		t.Fatalf("expected 2 uploads, got %d", got)
	}

	data, err := os.ReadFile(filepath.Join(dir, "a.srt"))
	if err != nil {
		t.Fatalf("read subtitles: %v", err)
	}
	requireContains(t, string(data), "00:00:00,000 --> 00:00:02,500")
	requireContains(t, string(data), "hello world")
	if _, err := os.Stat(filepath.Join(dir, "notes.srt")); !os.IsNotExist(err) {
		t.Fatalf("non-video input should not be processed")
	}
}

func TestProcessFlagsOverrideConfig(t *testing.T) {
	env := setupCLITestEnv(t, "test")
	dir := env.videoDir(t, "show/ep1.mp4")
	outDir := filepath.Join(env.baseDir, "subs")

	_, _, err := runCLI(t, []string{"process", dir, "-r", "-f", "vtt", "-o", outDir, "--report", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "show", "ep1.vtt"))
	if err != nil {
		t.Fatalf("expected mirrored vtt output: %v", err)
	}
	if !strings.HasPrefix(string(data), "WEBVTT") {
		t.Fatalf("expected WEBVTT header, got %q", data)
	}
}

func TestProcessReportsPartialFailure(t *testing.T) {
	env := setupCLITestEnv(t, "test")
	dir := env.videoDir(t, "good.mp4", "broken.mp4")

	out, stderr, err := runCLI(t, []string{"process", dir}, env.configPath)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported failure, got %v", err)
	}
	requireContains(t, out, "1 done (0 skipped), 1 failed")
	requireContains(t, stderr, "FAIL")
	if _, err := os.Stat(filepath.Join(dir, "good.srt")); err != nil {
		t.Fatalf("good input should still produce subtitles: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "broken.srt")); !os.IsNotExist(err) {
		t.Fatalf("failed input should not produce subtitles")
	}
}

func TestProcessRequiresAPIKey(t *testing.T) {
	env := setupCLITestEnv(t, "")
	dir := env.videoDir(t, "a.mp4")

	_, _, err := runCLI(t, []string{"process", dir}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "api_key is required") {
		t.Fatalf("expected missing api key error, got %v", err)
	}
	if env.uploads.Load() != 0 {
		t.Fatal("no upload expected without an API key")
	}
}

func TestResumeSkipsAndHistoryLists(t *testing.T) {
	env := setupCLITestEnv(t, "test")
	dir := env.videoDir(t, "a.mp4", "b.mp4")

	if _, _, err := runCLI(t, []string{"process", dir, "--report", "json"}, env.configPath); err != nil {
		t.Fatalf("first run: %v", err)
	}
	out, _, err := runCLI(t, []string{"process", dir, "--resume", "--report", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("resume run: %v", err)
	}
	var summary batch.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Skipped != 2 || summary.Done != 2 {
		t.Fatalf("expected both inputs skipped, got %+v", summary)
	}
	if got := env.uploads.Load(); got != 2 {
		t.Fatalf("resume should not upload again, got %d uploads", got)
	}

	out, _, err = runCLI(t, []string{"history", "--report", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var entries []ledger.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Status != ledger.StatusDone || e.Format != "srt" {
			t.Fatalf("unexpected entry %+v", e)
		}
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history table: %v", err)
	}
	requireContains(t, out, "a.mp4")
}

func TestHistoryWithoutDatabase(t *testing.T) {
	env := setupCLITestEnv(t, "test")

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No history recorded yet")
}

func TestResumeConflictsWithNoHistory(t *testing.T) {
	env := setupCLITestEnv(t, "test")
	dir := env.videoDir(t, "a.mp4")

	_, _, err := runCLI(t, []string{"process", dir, "--resume", "--no-history"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "resume needs the history database") {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestUnknownReportFormat(t *testing.T) {
	env := setupCLITestEnv(t, "test")

	_, _, err := runCLI(t, []string{"check", "--offline", "--report", "xml"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unsupported report format") {
		t.Fatalf("expected report format error, got %v", err)
	}
}
