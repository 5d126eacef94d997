package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vidsub/internal/extraction"
	"vidsub/internal/ledger"
	"vidsub/internal/logging"
	"vidsub/internal/services"
	"vidsub/internal/subtitles"
	"vidsub/internal/transcription"
)

// History persists job outcomes and answers resume lookups.
type History interface {
	Record(ctx context.Context, entry ledger.Entry) (int64, error)
	LastSuccess(ctx context.Context, input string) (*ledger.Entry, error)
}

// Runner processes inputs through extraction, transcription and formatting.
type Runner struct {
	opts        Options
	extractor   extraction.Extractor
	transcriber transcription.Transcriber
	history     History
	logger      *slog.Logger
	onResult    func(JobResult)
	newID       func() string

	resultMu sync.Mutex
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithHistory records outcomes and enables resume lookups.
func WithHistory(h History) RunnerOption {
	return func(r *Runner) {
		r.history = h
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResultHook is called once per finished job, serialised across workers.
func WithResultHook(fn func(JobResult)) RunnerOption {
	return func(r *Runner) {
		r.onResult = fn
	}
}

// NewRunner builds a runner around the given collaborators.
func NewRunner(opts Options, extractor extraction.Extractor, transcriber transcription.Transcriber, options ...RunnerOption) (*Runner, error) {
	if extractor == nil || transcriber == nil {
		return nil, errors.New("batch runner requires an extractor and a transcriber")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.normalize()
	r := &Runner{
		opts:        opts,
		extractor:   extractor,
		transcriber: transcriber,
		logger:      logging.NewNop(),
		newID:       uuid.NewString,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = logging.NewComponentLogger(r.logger, "batch")
	return r, nil
}

// Run discovers inputs from paths and processes them. The returned error is
// reserved for problems with the batch as a whole (nothing to process);
// per-file failures are reported in the Summary only.
func (r *Runner) Run(ctx context.Context, paths []string) (Summary, error) {
	inputs, err := Discover(paths, r.opts.Recursive)
	if err != nil {
		return Summary{BatchID: r.newID(), StartedAt: time.Now(), FinishedAt: time.Now()}, err
	}
	if len(inputs) == 0 {
		now := time.Now()
		return Summary{BatchID: r.newID(), StartedAt: now, FinishedAt: now},
			services.Wrap(services.ErrInput, "discovery", "", "no video files found", nil)
	}
	return r.RunInputs(ctx, inputs), nil
}

// RunInputs processes already discovered inputs on the worker pool.
func (r *Runner) RunInputs(ctx context.Context, inputs []Input) Summary {
	summary := Summary{BatchID: r.newID(), StartedAt: time.Now()}
	ctx = services.WithBatchID(ctx, summary.BatchID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("inputs", len(inputs)),
		logging.Int("workers", r.opts.Workers),
		logging.String("format", string(r.opts.Format)),
	)

	jobs := r.plan(inputs)
	results := make([]JobResult, len(jobs))

	var group errgroup.Group
	group.SetLimit(r.opts.Workers)
	for i, job := range jobs {
		if job.Terminal() {
			results[i] = r.finish(ctx, job)
			continue
		}
		if ctx.Err() != nil {
			job.fail(ctx, services.Wrap(services.ErrCancelled, "dispatch", "", "", errNotDispatched))
			results[i] = r.finish(ctx, job)
			continue
		}
		group.Go(func() error {
			// The slot may have opened after cancellation.
			if ctx.Err() != nil {
				job.fail(ctx, services.Wrap(services.ErrCancelled, "dispatch", "", "", errNotDispatched))
			} else {
				r.process(ctx, job)
			}
			results[i] = r.finish(ctx, job)
			return nil
		})
	}
	_ = group.Wait()

	summary.Jobs = results
	summary.FinishedAt = time.Now()
	summary.Elapsed = summary.FinishedAt.Sub(summary.StartedAt)
	summary.tally()

	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("done", summary.Done),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary
}

// Process runs a single input outside the worker pool. It is used by the
// directory watcher.
func (r *Runner) Process(ctx context.Context, in Input) JobResult {
	jobs := r.plan([]Input{in})
	job := jobs[0]
	if !job.Terminal() {
		r.process(ctx, job)
	}
	return r.finish(ctx, job)
}

// plan creates jobs and resolves output paths. Inputs that failed discovery
// or collide on an output path fail immediately.
func (r *Runner) plan(inputs []Input) []*Job {
	owners := make(map[string]string, len(inputs))
	jobs := make([]*Job, 0, len(inputs))
	for _, in := range inputs {
		output := ""
		if in.Err == nil {
			output = OutputPath(in, r.opts.OutputDir, r.opts.Format.Extension())
		}
		job := newJob(in, output, r.logTransition)
		switch {
		case in.Err != nil:
			job.fail(context.Background(), in.Err)
		case owners[output] != "":
			job.fail(context.Background(), outputCollision(output, owners[output]))
		default:
			owners[output] = in.Path
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func (r *Runner) process(ctx context.Context, job *Job) {
	job.started = time.Now()
	ctx = services.WithJob(ctx, job.Input.Path)

	if r.opts.Resume && r.unchangedSinceLastRun(ctx, job) {
		job.skipped = true
		if err := job.complete(ctx); err != nil {
			job.fail(ctx, err)
		}
		return
	}

	workDir, err := os.MkdirTemp(r.opts.WorkDir, "vidsub-job-*")
	if err != nil {
		job.fail(ctx, services.Wrap(services.ErrConfiguration, "setup", "work dir", r.opts.WorkDir, err))
		return
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logging.WithContext(ctx, r.logger).Warn("failed to remove job work dir",
				logging.String(logging.FieldEventType, "workdir_cleanup_failed"),
				logging.String(logging.FieldImpact, "temporary audio left on disk"),
				logging.String("path", workDir),
				logging.Error(err),
			)
		}
	}()

	if err := job.advance(ctx, eventExtract); err != nil {
		job.fail(ctx, err)
		return
	}
	audio, err := r.extractor.Extract(services.WithStage(ctx, string(StatusExtracting)), job.Input.Path, workDir)
	if err != nil {
		job.fail(ctx, err)
		return
	}

	if err := job.advance(ctx, eventTranscribe); err != nil {
		job.fail(ctx, err)
		return
	}
	segments, err := r.transcriber.Transcribe(
		services.WithStage(ctx, string(StatusTranscribing)),
		transcription.Audio{Path: audio.Path, Duration: audio.Duration},
	)
	if err != nil {
		job.fail(ctx, err)
		return
	}

	if err := job.advance(ctx, eventFormat); err != nil {
		job.fail(ctx, err)
		return
	}
	if ctx.Err() != nil {
		job.fail(ctx, services.Wrap(services.ErrCancelled, string(StatusFormatting), "", "", ctx.Err()))
		return
	}
	cues, err := subtitles.WriteFile(job.Output, r.opts.Format, segments)
	if err != nil {
		job.fail(ctx, err)
		return
	}
	job.cues = len(cues)
	if err := job.complete(ctx); err != nil {
		job.fail(ctx, err)
	}
}

func (r *Runner) unchangedSinceLastRun(ctx context.Context, job *Job) bool {
	if r.history == nil {
		return false
	}
	info, err := os.Stat(job.Input.Path)
	if err != nil {
		return false
	}
	last, err := r.history.LastSuccess(ctx, job.Input.Path)
	if err != nil {
		logging.WithContext(ctx, r.logger).Warn("history lookup failed; processing anyway",
			logging.String(logging.FieldEventType, "history_lookup_failed"),
			logging.String(logging.FieldImpact, "file will be transcribed again"),
			logging.Error(err),
		)
		return false
	}
	if last == nil || last.Output != job.Output {
		return false
	}
	return last.Matches(info.Size(), info.ModTime(), string(r.opts.Format), fileExists)
}

// finish converts a terminal job into its result, records it and notifies the
// result hook.
func (r *Runner) finish(ctx context.Context, job *Job) JobResult {
	result := JobResult{
		Input:    job.Input.Path,
		Status:   job.Status(),
		Skipped:  job.skipped,
		Cues:     job.cues,
		Duration: job.duration(),
		err:      job.err,
	}
	if result.Status == StatusDone {
		result.Output = job.Output
	}
	if job.err != nil {
		result.Error = job.err.Error()
		result.ErrorKind = services.Kind(job.err)
	}

	logger := logging.WithContext(services.WithJob(ctx, job.Input.Path), r.logger)
	switch {
	case result.Status == StatusFailed:
		logging.WarnWithContext(logger, "job failed", "job_failed",
			logging.String("kind", result.ErrorKind),
			logging.String(logging.FieldErrorHint, errorHint(job.err)),
			logging.Error(job.err),
		)
	case result.Skipped:
		logger.Info("job skipped; output is up to date",
			logging.String(logging.FieldEventType, "job_skipped"),
			logging.String("output", result.Output),
		)
	default:
		logger.Info("job done",
			logging.String(logging.FieldEventType, "job_done"),
			logging.String("output", result.Output),
			logging.Int("cues", result.Cues),
			logging.Duration("duration", result.Duration),
		)
	}

	r.record(ctx, job, result)

	if r.onResult != nil {
		r.resultMu.Lock()
		r.onResult(result)
		r.resultMu.Unlock()
	}
	return result
}

func (r *Runner) record(ctx context.Context, job *Job, result JobResult) {
	// Skipped jobs keep their original entry as the resume reference.
	if r.history == nil || result.Skipped || job.started.IsZero() {
		return
	}
	entry := ledger.Entry{
		Input:        result.Input,
		Output:       result.Output,
		Format:       string(r.opts.Format),
		ErrorKind:    result.ErrorKind,
		ErrorMessage: result.Error,
		Cues:         result.Cues,
		Duration:     result.Duration,
		FinishedAt:   job.finished,
	}
	if id, ok := services.BatchIDFromContext(ctx); ok {
		entry.BatchID = id
	}
	if result.Status == StatusDone {
		entry.Status = ledger.StatusDone
	} else {
		entry.Status = ledger.StatusFailed
	}
	if info, err := os.Stat(job.Input.Path); err == nil {
		entry.InputSize = info.Size()
		entry.InputModTime = info.ModTime()
	}
	if _, err := r.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.ErrorWithContext(logging.WithContext(ctx, r.logger), "failed to record job outcome", "history_record_failed",
			logging.String(logging.FieldImpact, "resume will not skip this file"),
			logging.String(logging.FieldErrorHint, "check the state directory is writable"),
			logging.Error(err),
		)
	}
}

func (r *Runner) logTransition(job *Job, from, to Status) {
	r.logger.Debug("job state changed",
		logging.String(logging.FieldJob, job.Input.Path),
		logging.String("from", string(from)),
		logging.String("to", string(to)),
	)
}

func errorHint(err error) string {
	switch services.Kind(err) {
	case "auth":
		return "check GROQ_API_KEY or [transcription] api_key"
	case "rate_limited":
		return "lower [batch] workers or retry later"
	case "input":
		if err != nil && strings.Contains(err.Error(), "upload limit") {
			return "lower [audio] sample_rate or use a compressed audio format"
		}
		return "check the input file is a readable video with an audio stream"
	case "extraction":
		return "run vidsub check to verify ffmpeg"
	case "cancelled":
		return "re-run the batch to process remaining files"
	default:
		return ""
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// String renders a one-line description of the result.
func (r JobResult) String() string {
	if r.Status == StatusFailed {
		return fmt.Sprintf("%s: failed: %s", r.Input, r.Error)
	}
	return fmt.Sprintf("%s -> %s", r.Input, r.Output)
}
