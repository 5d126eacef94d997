package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vidsub/internal/config"
)

func TestLoadDefaultConfigUsesEnvAPIKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Transcription.APIKey != "test-key" {
		t.Fatalf("expected api key from env, got %q", cfg.Transcription.APIKey)
	}
	wantState := filepath.Join(tempHome, ".local", "state", "vidsub")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
	if cfg.Transcription.Model != config.ModelWhisperLargeV3Turbo {
		t.Fatalf("unexpected default model %q", cfg.Transcription.Model)
	}
	if cfg.Batch.Workers != 4 {
		t.Fatalf("expected 4 workers by default, got %d", cfg.Batch.Workers)
	}
	if cfg.Output.Format != "srt" || cfg.Transcription.ResponseFormat != config.ResponseVerboseJSON {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxUploadBytes() != 25*1024*1024 {
		t.Fatalf("unexpected upload limit %d", cfg.MaxUploadBytes())
	}
}

func TestLoadCustomPathNormalizesValues(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[transcription]
api_key = "  file-key  "
model = "Whisper-Large-V3"
base_url = "https://example.test/v1/"
language = "DE"

[output]
format = ".VTT"
dir = "~/subs"

[batch]
workers = 2
recursive = true

[logging]
format = "JSON"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Transcription.APIKey != "file-key" {
		t.Fatalf("unexpected api key %q", cfg.Transcription.APIKey)
	}
	if cfg.Transcription.Model != config.ModelWhisperLargeV3 {
		t.Fatalf("unexpected model %q", cfg.Transcription.Model)
	}
	if cfg.Transcription.BaseURL != "https://example.test/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Transcription.BaseURL)
	}
	if cfg.Transcription.Language != "de" {
		t.Fatalf("unexpected language %q", cfg.Transcription.Language)
	}
	if cfg.Output.Format != "vtt" {
		t.Fatalf("unexpected output format %q", cfg.Output.Format)
	}
	if cfg.Output.Dir != filepath.Join(tempHome, "subs") {
		t.Fatalf("unexpected output dir %q", cfg.Output.Dir)
	}
	if cfg.Batch.Workers != 2 || !cfg.Batch.Recursive {
		t.Fatalf("unexpected batch settings %+v", cfg.Batch)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging format %q", cfg.Logging.Format)
	}
}

func TestLoadAppliesEnvFile(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)

	env := "GROQ_API_KEY=dotenv-key\nMODEL=distil-whisper-large-v3-en\nOUTPUT_FORMAT=txt\nNUM_WORKERS=8\nRECURSIVE=true\nTEMPERATURE=0.2\nPROMPT=Names: Ada\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Transcription.APIKey != "dotenv-key" {
		t.Fatalf("unexpected api key %q", cfg.Transcription.APIKey)
	}
	if cfg.Transcription.Model != config.ModelDistilWhisperEN {
		t.Fatalf("unexpected model %q", cfg.Transcription.Model)
	}
	if cfg.Output.Format != "txt" || cfg.Batch.Workers != 8 || !cfg.Batch.Recursive {
		t.Fatalf("env overlay not applied: %+v %+v", cfg.Output, cfg.Batch)
	}
	if cfg.Transcription.Temperature == nil || *cfg.Transcription.Temperature != 0.2 {
		t.Fatalf("unexpected temperature %v", cfg.Transcription.Temperature)
	}
	if cfg.Transcription.Prompt != "Names: Ada" {
		t.Fatalf("unexpected prompt %q", cfg.Transcription.Prompt)
	}
	if _, ok := os.LookupEnv("MODEL"); ok {
		t.Fatal("env file must not mutate the process environment")
	}
}

func TestLoadWithEnvFileRequiresExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	if _, _, _, err := config.LoadWithEnvFile("", filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for missing explicit env file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"model", func(c *config.Config) { c.Transcription.Model = "tiny" }, "transcription.model"},
		{"response format", func(c *config.Config) { c.Transcription.ResponseFormat = "srt" }, "transcription.response_format"},
		{"language length", func(c *config.Config) { c.Transcription.Language = "english" }, "transcription.language"},
		{"language syntax", func(c *config.Config) { c.Transcription.Language = "e1" }, "transcription.language"},
		{"temperature", func(c *config.Config) { v := 1.5; c.Transcription.Temperature = &v }, "temperature"},
		{"base url", func(c *config.Config) { c.Transcription.BaseURL = "not a url" }, "base_url"},
		{"output format", func(c *config.Config) { c.Output.Format = "ass" }, "output.format"},
		{"workers low", func(c *config.Config) { c.Batch.Workers = 0 }, "batch.workers"},
		{"workers high", func(c *config.Config) { c.Batch.Workers = 100 }, "batch.workers"},
		{"audio format", func(c *config.Config) { c.Audio.Format = "flac" }, "audio.format"},
		{"sample rate", func(c *config.Config) { c.Audio.SampleRate = 100 }, "audio.sample_rate"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %v", tt.want, err)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireAPIKey(); err == nil {
		t.Fatal("expected missing api key error")
	}
	cfg.Transcription.APIKey = "k"
	if err := cfg.RequireAPIKey(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSampleConfigParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Transcription.Model != config.ModelWhisperLargeV3Turbo {
		t.Fatalf("unexpected sample model %q", cfg.Transcription.Model)
	}
}

func TestEncodeRedactsAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.APIKey = "secret"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Fatalf("api key leaked: %s", data)
	}
	if cfg.Transcription.APIKey != "secret" {
		t.Fatal("Encode must not mutate the config")
	}
}

func TestRevalidateNormalizesOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Output.Format = " .VTT "
	cfg.Transcription.Model = "Whisper-Large-V3"
	if err := cfg.Revalidate(); err != nil {
		t.Fatalf("Revalidate failed: %v", err)
	}
	if cfg.Output.Format != "vtt" || cfg.Transcription.Model != "whisper-large-v3" {
		t.Fatalf("overrides not normalized: %+v", cfg.Output)
	}

	cfg.Batch.Workers = 64
	if err := cfg.Revalidate(); err == nil {
		t.Fatal("expected out of range workers to be rejected")
	}
}
