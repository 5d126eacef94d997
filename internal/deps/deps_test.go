package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Optional", Command: "also-not-present", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("expected only the required binary to be missing, got %#v", missing)
	}
}

func TestCheckMediaRecordsVersion(t *testing.T) {
	binDir := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
			t.Fatalf("write stub: %v", err)
		}
	}
	t.Setenv("PATH", binDir)

	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		if len(args) != 1 || args[0] != "-version" {
			t.Fatalf("unexpected args %v", args)
		}
		if filepath.Base(name) == "ffprobe" {
			return nil, errors.New("boom")
		}
		return []byte("ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023\nbuilt with gcc\n"), nil
	}

	statuses := CheckMedia(context.Background(), run, "", "")
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Version != "6.1.1-3ubuntu5" {
		t.Fatalf("ffmpeg version = %q", statuses[0].Version)
	}
	if !statuses[1].Available || statuses[1].Detail != "version probe failed" {
		t.Fatalf("unexpected ffprobe status %#v", statuses[1])
	}
}

func TestParseVersion(t *testing.T) {
	if got := parseVersion([]byte("garbage")); got != "" {
		t.Fatalf("parseVersion(garbage) = %q", got)
	}
}
