package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeOutput()
	c.normalizeAudio()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = os.TempDir()
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Output.Dir) != "" {
		if c.Output.Dir, err = expandPath(strings.TrimSpace(c.Output.Dir)); err != nil {
			return fmt.Errorf("output.dir: %w", err)
		}
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	c.Paths.FFmpegBinary = strings.TrimSpace(c.Paths.FFmpegBinary)
	if c.Paths.FFmpegBinary == "" {
		c.Paths.FFmpegBinary = defaultFFmpegBinary
	}
	c.Paths.FFprobeBinary = strings.TrimSpace(c.Paths.FFprobeBinary)
	if c.Paths.FFprobeBinary == "" {
		c.Paths.FFprobeBinary = defaultFFprobeBinary
	}
	return nil
}

func (c *Config) normalizeTranscription() {
	t := &c.Transcription
	t.APIKey = strings.TrimSpace(t.APIKey)
	if t.APIKey == "" {
		if value, ok := lookupEnv("GROQ_API_KEY"); ok {
			t.APIKey = value
		}
	}
	t.BaseURL = strings.TrimRight(strings.TrimSpace(t.BaseURL), "/")
	if t.BaseURL == "" {
		t.BaseURL = defaultBaseURL
	}
	t.Model = strings.ToLower(strings.TrimSpace(t.Model))
	if t.Model == "" {
		t.Model = defaultModel
	}
	t.Language = strings.ToLower(strings.TrimSpace(t.Language))
	t.ResponseFormat = strings.ToLower(strings.TrimSpace(t.ResponseFormat))
	if t.ResponseFormat == "" {
		t.ResponseFormat = defaultResponseFormat
	}
	t.Prompt = strings.TrimSpace(t.Prompt)
	if t.TimeoutSeconds <= 0 {
		t.TimeoutSeconds = defaultTimeoutSeconds
	}
	if t.MaxAttempts <= 0 {
		t.MaxAttempts = defaultMaxAttempts
	}
	if t.RetryBaseSeconds <= 0 {
		t.RetryBaseSeconds = defaultRetryBaseSeconds
	}
	if t.RetryMaxSeconds <= 0 {
		t.RetryMaxSeconds = defaultRetryMaxSeconds
	}
}

func (c *Config) normalizeOutput() {
	format := strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Output.Format = strings.TrimPrefix(format, ".")
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.Format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Audio.Format)), ".")
	if c.Audio.Format == "" {
		c.Audio.Format = defaultAudioFormat
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	if c.Audio.MaxUploadMB <= 0 {
		c.Audio.MaxUploadMB = defaultMaxUploadMB
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
