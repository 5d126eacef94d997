package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"vidsub/internal/logging"
)

const (
	defaultSettle  = 2 * time.Second
	defaultWorkers = 2
)

// Handler processes one settled file.
type Handler func(ctx context.Context, path string)

// Options tunes the watcher.
type Options struct {
	// Settle is how long a file must go without write events before it is
	// handed off.
	Settle    time.Duration
	Workers   int
	Recursive bool
	// Match selects files of interest; nil accepts everything.
	Match func(path string) bool
}

// Watcher dispatches newly written files under a directory.
type Watcher struct {
	root    string
	opts    Options
	handler Handler
	logger  *slog.Logger
	fsw     *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time
	active  map[string]struct{}
	sem     chan struct{}
	wg      sync.WaitGroup
}

// New watches root. Subdirectories are added when Recursive is set.
func New(root string, handler Handler, opts Options, logger *slog.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watcher requires a handler")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", root)
	}
	if opts.Settle <= 0 {
		opts.Settle = defaultSettle
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		root:    root,
		opts:    opts,
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "watcher"),
		fsw:     fsw,
		pending: make(map[string]time.Time),
		active:  make(map[string]struct{}),
		sem:     make(chan struct{}, opts.Workers),
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	if !w.opts.Recursive {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("add watch path: %w", err)
		}
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("add watch path %s: %w", path, err)
		}
		return nil
	})
}

// Run blocks until ctx is cancelled, then waits for in-flight handlers.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	w.logger.Info("watching for new videos",
		logging.String(logging.FieldEventType, "watch_start"),
		logging.String("dir", w.root),
		logging.Bool("recursive", w.opts.Recursive),
		logging.Duration("settle", w.opts.Settle),
	)

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			w.logger.Info("watcher stopped", logging.String(logging.FieldEventType, "watch_stop"))
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			w.observe(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logging.WarnWithContext(w.logger, "watcher error", "watch_error",
				logging.String(logging.FieldImpact, "some file events may have been missed"),
				logging.Error(err),
			)

		case now := <-ticker.C:
			for _, path := range w.settled(now) {
				w.dispatch(ctx, path)
			}
		}
	}
}

func (w *Watcher) tick() time.Duration {
	tick := w.opts.Settle / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	return tick
}

func (w *Watcher) observe(event fsnotify.Event) {
	path := event.Name
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	if event.Has(fsnotify.Create) && w.opts.Recursive {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(path); err != nil {
				w.logger.Warn("failed to watch new directory",
					logging.String(logging.FieldEventType, "watch_add_failed"),
					logging.String("dir", path),
					logging.Error(err),
				)
			}
			return
		}
	}
	if w.opts.Match != nil && !w.opts.Match(path) {
		return
	}
	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// settled removes and returns files quiet for at least the settle period.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) < w.opts.Settle {
			continue
		}
		if _, busy := w.active[path]; busy {
			continue
		}
		delete(w.pending, path)
		ready = append(ready, path)
	}
	return ready
}

func (w *Watcher) dispatch(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return
	}
	select {
	case w.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	w.mu.Lock()
	w.active[path] = struct{}{}
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			delete(w.active, path)
			w.mu.Unlock()
			<-w.sem
		}()
		w.logger.Info("new video settled",
			logging.String(logging.FieldEventType, "watch_dispatch"),
			logging.String(logging.FieldJob, path),
		)
		w.handler(ctx, path)
	}()
}
