package deps

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// VersionRunner executes a binary and returns its combined output.
type VersionRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execVersion(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// MediaRequirements lists the ffmpeg tools used for extraction.
func MediaRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     defaultCommand(ffmpegBinary, "ffmpeg"),
			Description: "Required for audio extraction",
		},
		{
			Name:        "FFprobe",
			Command:     defaultCommand(ffprobeBinary, "ffprobe"),
			Description: "Required for audio stream selection",
		},
	}
}

// CheckMedia checks the ffmpeg tools and records their reported versions.
// A nil runner executes the binaries.
func CheckMedia(ctx context.Context, run VersionRunner, ffmpegBinary, ffprobeBinary string) []Status {
	if run == nil {
		run = execVersion
	}
	statuses := CheckBinaries(MediaRequirements(ffmpegBinary, ffprobeBinary))
	for i := range statuses {
		if !statuses[i].Available {
			continue
		}
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		out, err := run(probeCtx, statuses[i].Command, "-version")
		cancel()
		if err != nil {
			statuses[i].Detail = "version probe failed"
			continue
		}
		statuses[i].Version = parseVersion(out)
	}
	return statuses
}

// parseVersion extracts "6.1.1" from "ffmpeg version 6.1.1 Copyright ...".
func parseVersion(out []byte) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	fields := strings.Fields(line)
	for i, field := range fields {
		if field == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

func defaultCommand(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
