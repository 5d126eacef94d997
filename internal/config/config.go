package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Transcription contains the hosted speech-to-text connection settings.
type Transcription struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	ResponseFormat string `toml:"response_format"`
	// Temperature is optional; nil leaves the API default in place.
	Temperature      *float64 `toml:"temperature"`
	Prompt           string   `toml:"prompt"`
	TimeoutSeconds   int      `toml:"timeout_seconds"`
	MaxAttempts      int      `toml:"max_attempts"`
	RetryBaseSeconds float64  `toml:"retry_base_seconds"`
	RetryMaxSeconds  float64  `toml:"retry_max_seconds"`
}

// Output controls where and how subtitle files are written.
type Output struct {
	Format string `toml:"format"`
	// Dir is optional; subtitles are written next to each input when empty.
	Dir string `toml:"dir"`
}

// Batch contains worker pool and discovery settings.
type Batch struct {
	Workers   int  `toml:"workers"`
	Recursive bool `toml:"recursive"`
	Resume    bool `toml:"resume"`
	History   bool `toml:"history"`
}

// Audio controls the extracted upload file.
type Audio struct {
	Format      string `toml:"format"`
	SampleRate  int    `toml:"sample_rate"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

// Paths contains state directories and external binaries.
type Paths struct {
	StateDir      string `toml:"state_dir"`
	WorkDir       string `toml:"work_dir"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for vidsub.
type Config struct {
	Transcription Transcription `toml:"transcription"`
	Output        Output        `toml:"output"`
	Batch         Batch         `toml:"batch"`
	Audio         Audio         `toml:"audio"`
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Keys from a .env
// file in the working directory are applied on top of the file when present.
func Load(path string) (*Config, string, bool, error) {
	return LoadWithEnvFile(path, "")
}

// LoadWithEnvFile behaves like Load but reads the given .env file. An empty
// envFile means ".env" in the working directory, which is optional; an
// explicit envFile must exist.
func LoadWithEnvFile(path, envFile string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnvFile(envFile); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vidsub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and work directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.WorkDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequireAPIKey reports a helpful error when no API key has been configured.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.Transcription.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("transcription.api_key is required. Set GROQ_API_KEY, add it to .env, or edit %s (create with 'vidsub config init')", defaultPath)
}

// Revalidate normalizes and validates the config again after fields were
// changed in place, such as by command-line flags.
func (c *Config) Revalidate() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

// HistoryPath returns the location of the job history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the lock file guarding against concurrent batches.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "vidsub.lock")
}

// MaxUploadBytes returns the audio upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Audio.MaxUploadMB) * 1024 * 1024
}

// Encode renders the config as TOML.
func (c *Config) Encode() ([]byte, error) {
	redacted := *c
	if redacted.Transcription.APIKey != "" {
		redacted.Transcription.APIKey = "<redacted>"
	}
	return toml.Marshal(redacted)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
