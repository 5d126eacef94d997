package extraction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"vidsub/internal/logging"
	"vidsub/internal/services"
)

const probeTwoAudio = `{"streams":[
 {"index":0,"codec_type":"video"},
 {"index":1,"codec_type":"audio","codec_name":"ac3","channels":6,"tags":{"language":"ger"}},
 {"index":2,"codec_type":"audio","codec_name":"aac","channels":2,"tags":{"language":"eng"}}
],"format":{"duration":"42.5"}}`

func stubProbe(report string, err error) func(context.Context, string, ...string) ([]byte, error) {
	return func(context.Context, string, ...string) ([]byte, error) {
		return []byte(report), err
	}
}

// writingRunner mimics ffmpeg by writing size bytes to the final argument.
func writingRunner(t *testing.T, size int, gotArgs *[]string) func(context.Context, string, ...string) error {
	t.Helper()
	return func(_ context.Context, _ string, args ...string) error {
		*gotArgs = args
		return os.WriteFile(args[len(args)-1], make([]byte, size), 0o644)
	}
}

func newInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movie.mkv")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractSelectsLanguageAndBuildsArgs(t *testing.T) {
	input := newInput(t)
	workDir := t.TempDir()

	ex := New(Config{Language: "en", MaxUploadBytes: 1024}, logging.NewNop())
	ex.WithProbeRunner(stubProbe(probeTwoAudio, nil))
	var args []string
	ex.WithCommandRunner(writingRunner(t, 100, &args))

	got, err := ex.Extract(context.Background(), input, workDir)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Path != filepath.Join(workDir, "audio.mp3") || got.Size != 100 || got.Duration != 42.5 {
		t.Fatalf("unexpected audio %+v", got)
	}
	idx := slices.Index(args, "-map")
	if idx < 0 || args[idx+1] != "0:a:1" {
		t.Fatalf("expected english stream mapped, args=%v", args)
	}
	for _, want := range []string{"-vn", "16000", "libmp3lame"} {
		if !slices.Contains(args, want) {
			t.Fatalf("expected %q in args %v", want, args)
		}
	}
}

func TestExtractMissingInputIsInputError(t *testing.T) {
	ex := New(Config{}, nil)
	_, err := ex.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), t.TempDir())
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestExtractCorruptInputIsInputError(t *testing.T) {
	ex := New(Config{}, nil)
	ex.WithProbeRunner(stubProbe("", errors.New("Invalid data found when processing input")))
	ex.WithCommandRunner(func(context.Context, string, ...string) error {
		t.Fatal("ffmpeg must not run for unreadable input")
		return nil
	})
	_, err := ex.Extract(context.Background(), newInput(t), t.TempDir())
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestExtractNoAudioIsInputError(t *testing.T) {
	ex := New(Config{}, nil)
	ex.WithProbeRunner(stubProbe(`{"streams":[{"index":0,"codec_type":"video"}],"format":{}}`, nil))
	_, err := ex.Extract(context.Background(), newInput(t), t.TempDir())
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestExtractFFmpegFailureIsExtractionError(t *testing.T) {
	ex := New(Config{Format: "wav"}, nil)
	ex.WithProbeRunner(stubProbe(probeTwoAudio, nil))
	ex.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1: Conversion failed!")
	})
	_, err := ex.Extract(context.Background(), newInput(t), t.TempDir())
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	if services.IsRetryable(err) {
		t.Fatal("extraction errors must not be retryable")
	}
}

func TestExtractCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ex := New(Config{}, nil)
	ex.WithProbeRunner(stubProbe(probeTwoAudio, nil))
	ex.WithCommandRunner(func(context.Context, string, ...string) error {
		cancel()
		return errors.New("signal: killed")
	})
	_, err := ex.Extract(ctx, newInput(t), t.TempDir())
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected cancelled error, got %v", err)
	}
}

func TestExtractOversizedAudioIsInputError(t *testing.T) {
	ex := New(Config{MaxUploadBytes: 10}, nil)
	ex.WithProbeRunner(stubProbe(probeTwoAudio, nil))
	var args []string
	ex.WithCommandRunner(writingRunner(t, 11, &args))
	_, err := ex.Extract(context.Background(), newInput(t), t.TempDir())
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestBuildFFmpegArgsCodecs(t *testing.T) {
	tests := map[string]string{"wav": "pcm_s16le", "m4a": "aac", "mp3": "libmp3lame"}
	for format, codec := range tests {
		args := buildFFmpegArgs("in.mp4", 0, format, 16000, "out."+format)
		idx := slices.Index(args, "-c:a")
		if idx < 0 || args[idx+1] != codec {
			t.Fatalf("%s: expected codec %s in %v", format, codec, args)
		}
		if args[len(args)-1] != "out."+format {
			t.Fatalf("%s: destination must be last, got %v", format, args)
		}
	}
}
