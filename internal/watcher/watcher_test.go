package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"vidsub/internal/logging"
)

func TestWatcherDispatchesSettledMatches(t *testing.T) {
	dir := t.TempDir()
	var (
		mu   sync.Mutex
		seen []string
	)
	got := make(chan string, 4)
	w, err := New(dir, func(_ context.Context, path string) {
		mu.Lock()
		seen = append(seen, path)
		mu.Unlock()
		got <- path
	}, Options{
		Settle:    50 * time.Millisecond,
		Recursive: true,
		Match:     func(path string) bool { return strings.HasSuffix(path, ".mp4") },
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	video := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case path := <-got:
		if path != video {
			t.Fatalf("dispatched %q, want %q", path, video)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}

	// Give the watcher a few settle periods to make sure nothing else fires.
	time.Sleep(200 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("expected exactly one dispatch, got %v", seen)
	}
}

func TestSettledWaitsForQuietPeriod(t *testing.T) {
	w := &Watcher{
		opts:    Options{Settle: time.Second},
		pending: map[string]time.Time{},
		active:  map[string]struct{}{},
	}
	start := time.Now()
	w.pending["/a.mp4"] = start
	if ready := w.settled(start.Add(500 * time.Millisecond)); len(ready) != 0 {
		t.Fatalf("expected nothing ready, got %v", ready)
	}
	if ready := w.settled(start.Add(time.Second)); len(ready) != 1 || ready[0] != "/a.mp4" {
		t.Fatalf("expected /a.mp4 ready, got %v", ready)
	}
	if len(w.pending) != 0 {
		t.Fatalf("expected pending to be drained, got %v", w.pending)
	}
}

func TestNewRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(file, func(context.Context, string) {}, Options{}, nil); err == nil {
		t.Fatal("expected error for non-directory root")
	}
}
