package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"vidsub/internal/config"
	"vidsub/internal/testsupport"
)

const (
	probeReport = `{"streams":[{"index":0,"codec_type":"video"},{"index":1,"codec_type":"audio","codec_name":"aac","channels":2}],"format":{"duration":"2.5"}}`

	verboseTranscript = `{"text":"hello world","duration":2.5,"segments":[{"id":0,"start":0,"end":2.5,"text":" hello world"}]}`
)

var stubScripts = map[string]string{
	"ffprobe": `if [ "$1" = "-version" ]; then echo "ffprobe version 6.1-test"; exit 0; fi
printf '%s' '` + probeReport + `'`,
	"ffmpeg": `if [ "$1" = "-version" ]; then echo "ffmpeg version 6.1-test"; exit 0; fi
case "$*" in *broken*) echo "invalid data found" >&2; exit 1;; esac
for last; do :; done
printf 'audio' > "$last"`,
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	server     *httptest.Server
	uploads    atomic.Int32
}

// setupCLITestEnv writes a config pointing at a fake transcription API and
// stubbed ffmpeg/ffprobe binaries.
func setupCLITestEnv(t *testing.T, apiKey string) *cliTestEnv {
	t.Helper()

	env := &cliTestEnv{}
	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key"}}`))
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/models"):
			_, _ = w.Write([]byte(`{"data":[]}`))
		case strings.HasSuffix(r.URL.Path, "/audio/transcriptions"):
			env.uploads.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(verboseTranscript))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(env.server.Close)

	env.cfg = testsupport.NewConfig(t,
		testsupport.WithAPIKey(apiKey),
		testsupport.WithBaseURL(env.server.URL),
		testsupport.WithStubbedBinaries(stubScripts),
	)
	env.baseDir = testsupport.BaseDir(env.cfg)

	home := filepath.Join(env.baseDir, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("GROQ_API_KEY", "")

	env.configPath = filepath.Join(env.baseDir, "config.toml")
	writeTestConfig(t, env.configPath, env.cfg)
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[transcription]
api_key = %q
base_url = %q
retry_base_seconds = 0.01
retry_max_seconds = 0.05

[batch]
workers = 2

[paths]
state_dir = %q
work_dir = %q

[logging]
format = "json"
level = "warn"
`,
		cfg.Transcription.APIKey,
		cfg.Transcription.BaseURL,
		cfg.Paths.StateDir,
		cfg.Paths.WorkDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// videoDir creates a directory holding the named placeholder videos.
func (e *cliTestEnv) videoDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := filepath.Join(e.baseDir, "videos")
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
			t.Fatalf("write video: %v", err)
		}
	}
	return dir
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
