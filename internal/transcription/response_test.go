package transcription

import (
	"errors"
	"testing"
	"time"

	"vidsub/internal/services"
)

func TestParseResponseVerboseWithoutSegmentsUsesReportedDuration(t *testing.T) {
	segments, err := parseResponse(responseVerboseJSON, []byte(`{"text":"hi","duration":7}`), 3)
	if err != nil {
		t.Fatalf("parseResponse returned error: %v", err)
	}
	if len(segments) != 1 || segments[0].End != 7 {
		t.Fatalf("unexpected segments %+v", segments)
	}
}

func TestParseResponseEmptyTranscript(t *testing.T) {
	segments, err := parseResponse(responseJSON, []byte(`{"text":"   "}`), 10)
	if err != nil {
		t.Fatalf("parseResponse returned error: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected no segments, got %+v", segments)
	}
}

func TestParseResponseUnknownDuration(t *testing.T) {
	_, err := parseResponse(responseJSON, []byte(`{"text":"words"}`), 0)
	if !errors.Is(err, services.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestParseResponseInvalidJSON(t *testing.T) {
	_, err := parseResponse(responseVerboseJSON, []byte(`<html>`), 1)
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("5"); got != 5*time.Second {
		t.Fatalf("parseRetryAfter(5) = %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Fatalf("parseRetryAfter(empty) = %v", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Fatalf("parseRetryAfter(soon) = %v", got)
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	p := Policy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	cases := map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second, 4: 5 * time.Second, 9: 5 * time.Second}
	for attempt, want := range cases {
		if got := p.backoffDelay(attempt); got != want {
			t.Errorf("backoffDelay(%d) = %v, want %v", attempt, got, want)
		}
	}
}
