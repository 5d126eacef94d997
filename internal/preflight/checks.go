package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"vidsub/internal/config"
	"vidsub/internal/deps"
	"vidsub/internal/services"
	"vidsub/internal/transcription"
)

// CheckTranscriptionAPI verifies the endpoint is reachable and the key is
// valid. It uses a 30-second timeout and a single attempt.
func CheckTranscriptionAPI(ctx context.Context, cfg *config.Config) Result {
	const name = "Transcription API"
	tc := cfg.Transcription
	if strings.TrimSpace(tc.APIKey) == "" {
		return Result{Name: name, Detail: "skipped (API key missing)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := transcription.New(transcription.Config{
		APIKey:  tc.APIKey,
		BaseURL: tc.BaseURL,
		Model:   tc.Model,
		Timeout: 30 * time.Second,
	}, transcription.WithRetryPolicy(transcription.Policy{MaxAttempts: 1}))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", tc.BaseURL)}
}

// CheckAPIKey reports whether a transcription API key is configured.
func CheckAPIKey(cfg *config.Config) Result {
	const name = "API key"
	if err := cfg.RequireAPIKey(); err != nil {
		return Result{Name: name, Detail: "missing (set GROQ_API_KEY or [transcription] api_key)"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckOutputDir passes when the output directory is writable or can be
// created under a writable ancestor.
func CheckOutputDir(path string) Result {
	const name = "Output directory"
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	parent := filepath.Dir(path)
	for parent != filepath.Dir(parent) {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		parent = filepath.Dir(parent)
	}
	if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckSystemDeps evaluates the external binaries for the given config.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckMedia(ctx, nil, cfg.Paths.FFmpegBinary, cfg.Paths.FFprobeBinary)
}

func resultFromStatus(status deps.Status) Result {
	if !status.Available {
		detail := status.Detail
		if status.Description != "" {
			detail = fmt.Sprintf("%s (%s)", detail, strings.ToLower(status.Description))
		}
		return Result{Name: status.Name, Passed: status.Optional, Detail: detail}
	}
	detail := status.Command
	if status.Version != "" {
		detail = fmt.Sprintf("%s (version %s)", status.Command, status.Version)
	}
	return Result{Name: status.Name, Passed: true, Detail: detail}
}

// summarizeAPIError produces a human-readable summary for health check failures.
func summarizeAPIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	if errors.Is(err, services.ErrAuth) {
		return "API key rejected"
	}
	return err.Error()
}
