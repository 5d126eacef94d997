package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"vidsub/internal/batch"
	"vidsub/internal/config"
	"vidsub/internal/deps"
	"vidsub/internal/ledger"
	"vidsub/internal/logging"
	"vidsub/internal/preflight"
	"vidsub/internal/services"
)

// runFlags are the per-run overrides shared by process and watch.
type runFlags struct {
	output         string
	format         string
	workers        int
	recursive      bool
	resume         bool
	noHistory      bool
	model          string
	language       string
	responseFormat string
	temperature    float64
	prompt         string
	skipChecks     bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "", "Write subtitles under this directory instead of next to each video")
	flags.StringVarP(&f.format, "format", "f", "", "Subtitle format (srt, vtt, txt, docx)")
	flags.IntVarP(&f.workers, "workers", "w", 0, "Number of files processed concurrently")
	flags.BoolVarP(&f.recursive, "recursive", "r", false, "Descend into subdirectories")
	flags.StringVar(&f.model, "model", "", "Whisper model")
	flags.StringVarP(&f.language, "language", "l", "", "Spoken language as an ISO 639-1 code")
	flags.StringVar(&f.responseFormat, "response-format", "", "API response format (json, verbose_json, text)")
	flags.Float64Var(&f.temperature, "temperature", 0, "Sampling temperature between 0 and 1")
	flags.StringVar(&f.prompt, "prompt", "", "Prompt to guide spelling and style")
	flags.BoolVar(&f.noHistory, "no-history", false, "Do not record outcomes in the history database")
	flags.BoolVar(&f.skipChecks, "skip-checks", false, "Skip the ffmpeg/ffprobe availability check")
}

// apply returns a copy of base with the flags that were set on cmd applied.
func (f *runFlags) apply(cmd *cobra.Command, base *config.Config) (*config.Config, error) {
	cfg := *base
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Dir = f.output
	}
	if flags.Changed("format") {
		cfg.Output.Format = f.format
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers = f.workers
	}
	if flags.Changed("recursive") {
		cfg.Batch.Recursive = f.recursive
	}
	if flags.Lookup("resume") != nil && flags.Changed("resume") {
		cfg.Batch.Resume = f.resume
	}
	if flags.Changed("no-history") && f.noHistory {
		cfg.Batch.History = false
	}
	if flags.Changed("model") {
		cfg.Transcription.Model = f.model
	}
	if flags.Changed("language") {
		cfg.Transcription.Language = f.language
	}
	if flags.Changed("response-format") {
		cfg.Transcription.ResponseFormat = f.responseFormat
	}
	if flags.Changed("temperature") {
		temp := f.temperature
		cfg.Transcription.Temperature = &temp
	}
	if flags.Changed("prompt") {
		cfg.Transcription.Prompt = f.prompt
	}
	if err := cfg.Revalidate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "flags", "", err)
	}
	if cfg.Batch.Resume && !cfg.Batch.History {
		return nil, services.Wrap(services.ErrConfiguration, "config", "flags", "resume needs the history database; drop --no-history", nil)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// session holds what a processing command acquires before running jobs.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	runner *batch.Runner
	lock   *ledger.Lock
	store  *ledger.Store
}

func (s *session) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.lock != nil {
		_ = s.lock.Release()
	}
}

func openSession(cmd *cobra.Command, ctx *commandContext, flags *runFlags, extra ...batch.RunnerOption) (*session, error) {
	base, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	cfg, err := flags.apply(cmd, base)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "api key", "", err)
	}
	logger, err := ctx.newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	if !flags.skipChecks {
		if missing := deps.Missing(preflight.CheckSystemDeps(cmd.Context(), cfg)); len(missing) > 0 {
			names := make([]string, 0, len(missing))
			for _, m := range missing {
				names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.Detail))
			}
			return nil, services.Wrap(services.ErrConfiguration, "preflight", "dependencies", "missing "+strings.Join(names, ", "), nil)
		}
	}

	s := &session{cfg: cfg, logger: logger}
	if s.lock, err = ledger.AcquireLock(cfg.LockPath()); err != nil {
		return nil, err
	}

	opts, err := batch.OptionsFromConfig(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	runnerOpts := []batch.RunnerOption{batch.WithLogger(logger)}
	if cfg.Batch.History {
		if s.store, err = ledger.Open(cfg.HistoryPath()); err != nil {
			s.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		runnerOpts = append(runnerOpts, batch.WithHistory(s.store))
	}
	runnerOpts = append(runnerOpts, extra...)

	s.runner, err = batch.NewRunner(opts, newExtractor(cfg, logger), newTranscriber(cfg, logger), runnerOpts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	var report string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "process <path>...",
		Short: "Transcribe video files and write subtitles",
		Long: "Process extracts audio from each video (directories are scanned for video files),\n" +
			"transcribes it with the configured Whisper model, and writes a subtitle file per input.\n" +
			"A failure on one file never stops the others; the exit code is non-zero if any failed.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validateReportFormat(report)
			if err != nil {
				return err
			}
			var extra []batch.RunnerOption
			if format == reportTable && !quiet {
				stderr := cmd.ErrOrStderr()
				extra = append(extra, batch.WithResultHook(func(r batch.JobResult) { printResultLine(stderr, r) }))
			}
			s, err := openSession(cmd, ctx, &flags, extra...)
			if err != nil {
				return err
			}
			defer s.Close()

			summary, err := s.runner.Run(cmd.Context(), args)
			if err != nil {
				return err
			}
			if err := renderSummary(cmd, format, summary); err != nil {
				return err
			}
			if !summary.OK() {
				logging.WithContext(services.WithBatchID(cmd.Context(), summary.BatchID), s.logger).Debug("batch had failures",
					logging.Int("failed", summary.Failed),
				)
				return fmt.Errorf("%d of %d jobs failed: %w", summary.Failed, len(summary.Jobs), errReported)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.resume, "resume", false, "Skip inputs whose subtitles are up to date according to history")
	cmd.Flags().StringVar(&report, "report", reportTable, "Summary output (table, json, yaml)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print a line per finished file")
	return cmd
}
