package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"vidsub/internal/logging"
	"vidsub/internal/media/audio"
	"vidsub/internal/media/ffprobe"
	"vidsub/internal/services"
)

const stageExtracting = "extracting"

// Audio describes an extracted upload file.
type Audio struct {
	Path string
	// Duration of the source in seconds as reported by ffprobe; 0 when unknown.
	Duration float64
	Size     int64
	Stream   string
}

// Extractor turns an input video into an audio file inside workDir.
type Extractor interface {
	Extract(ctx context.Context, input, workDir string) (Audio, error)
}

// Config holds ffmpeg extraction settings.
type Config struct {
	FFmpegBinary   string
	FFprobeBinary  string
	Format         string
	SampleRate     int
	MaxUploadBytes int64
	// Language steers audio stream selection in multi-track containers.
	Language string
}

// FFmpeg extracts audio with the ffmpeg binary.
type FFmpeg struct {
	cfg           Config
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
	probeRunner   ffprobe.Runner
}

// New constructs an ffmpeg-backed extractor.
func New(cfg Config, logger *slog.Logger) *FFmpeg {
	if cfg.FFmpegBinary == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if cfg.FFprobeBinary == "" {
		cfg.FFprobeBinary = "ffprobe"
	}
	if cfg.Format == "" {
		cfg.Format = "mp3"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	return &FFmpeg{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "extraction"),
	}
}

// WithCommandRunner sets a custom ffmpeg runner (for testing).
func (f *FFmpeg) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	f.commandRunner = runner
}

// WithProbeRunner sets a custom ffprobe runner (for testing).
func (f *FFmpeg) WithProbeRunner(runner ffprobe.Runner) {
	f.probeRunner = runner
}

// Extract probes input, selects its audio stream, and encodes it into workDir.
func (f *FFmpeg) Extract(ctx context.Context, input, workDir string) (Audio, error) {
	ctx = services.WithStage(ctx, stageExtracting)
	logger := logging.WithContext(ctx, f.logger)

	info, err := os.Stat(input)
	if err != nil {
		return Audio{}, services.Wrap(services.ErrInput, stageExtracting, "stat input", input, err)
	}
	if info.IsDir() {
		return Audio{}, services.Wrap(services.ErrInput, stageExtracting, "stat input", input+" is a directory", nil)
	}

	probe, err := ffprobe.InspectWith(ctx, f.probeRunner, f.cfg.FFprobeBinary, input)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Audio{}, services.Wrap(services.ErrCancelled, stageExtracting, "probe", "", ctxErr)
		}
		return Audio{}, services.Wrap(services.ErrInput, stageExtracting, "probe", "unreadable or corrupt video", err)
	}
	selection := audio.Select(probe.Streams, f.cfg.Language)
	if !selection.Found() {
		return Audio{}, services.Wrap(services.ErrInput, stageExtracting, "select audio", "no audio stream in "+filepath.Base(input), nil)
	}
	logger.Debug("audio stream selected",
		logging.String("stream", selection.Label()),
		logging.Int("audio_index", selection.AudioIndex),
		logging.Bool("language_match", selection.LanguageMatch),
	)

	dest := filepath.Join(workDir, "audio."+f.cfg.Format)
	args := buildFFmpegArgs(input, selection.AudioIndex, f.cfg.Format, f.cfg.SampleRate, dest)
	if err := f.run(ctx, f.cfg.FFmpegBinary, args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Audio{}, services.Wrap(services.ErrCancelled, stageExtracting, "ffmpeg", "", ctxErr)
		}
		return Audio{}, services.Wrap(services.ErrExtraction, stageExtracting, "ffmpeg", "audio conversion failed", err)
	}

	out, err := os.Stat(dest)
	if err != nil {
		return Audio{}, services.Wrap(services.ErrExtraction, stageExtracting, "ffmpeg", "no audio produced", err)
	}
	if out.Size() == 0 {
		return Audio{}, services.Wrap(services.ErrExtraction, stageExtracting, "ffmpeg", "empty audio produced", nil)
	}
	if limit := f.cfg.MaxUploadBytes; limit > 0 && out.Size() > limit {
		msg := fmt.Sprintf("extracted audio is %.1f MB, over the %.0f MB upload limit", megabytes(out.Size()), megabytes(limit))
		return Audio{}, services.Wrap(services.ErrInput, stageExtracting, "check size", msg, nil)
	}

	logger.Debug("audio extracted",
		logging.String("path", dest),
		logging.Int64("bytes", out.Size()),
		logging.Float64("duration_seconds", probe.DurationSeconds()),
	)
	return Audio{
		Path:     dest,
		Duration: probe.DurationSeconds(),
		Size:     out.Size(),
		Stream:   selection.Label(),
	}, nil
}

func (f *FFmpeg) run(ctx context.Context, name string, args ...string) error {
	if f.commandRunner != nil {
		return f.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func buildFFmpegArgs(source string, audioIndex int, format string, sampleRate int, dest string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", fmt.Sprintf("0:a:%d", audioIndex),
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
	}
	switch format {
	case "wav":
		args = append(args, "-c:a", "pcm_s16le")
	case "m4a":
		args = append(args, "-c:a", "aac", "-b:a", "48k")
	default:
		args = append(args, "-c:a", "libmp3lame", "-b:a", "48k")
	}
	return append(args, dest)
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
