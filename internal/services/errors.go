package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInput         = errors.New("input error")
	ErrExtraction    = errors.New("extraction error")
	ErrTranscription = errors.New("transcription error")
	ErrFormat        = errors.New("format error")
	ErrConfiguration = errors.New("configuration error")
	ErrCancelled     = errors.New("cancelled")

	// Transcription failures are split by how the caller should react. Each of
	// these also matches ErrTranscription.
	ErrTransient   = fmt.Errorf("%w: transient failure", ErrTranscription)
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrTranscription)
	ErrAuth        = fmt.Errorf("%w: authentication failed", ErrTranscription)
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}

// Kind returns a short label for the most specific marker err carries, or
// "unknown" when it carries none.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	// Ordered most specific first.
	kinds := []struct {
		marker error
		label  string
	}{
		{ErrCancelled, "cancelled"},
		{ErrAuth, "auth"},
		{ErrRateLimited, "rate_limited"},
		{ErrTransient, "transient"},
		{ErrTranscription, "transcription"},
		{ErrInput, "input"},
		{ErrExtraction, "extraction"},
		{ErrFormat, "format"},
		{ErrConfiguration, "configuration"},
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.label
		}
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return "unknown"
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
