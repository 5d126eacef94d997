package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable. The API key is checked
// separately by RequireAPIKey so offline commands keep working without one.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	if !slices.Contains(supportedModels, t.Model) {
		return fmt.Errorf("transcription.model must be one of %s (got %q)", strings.Join(supportedModels, ", "), t.Model)
	}
	if !slices.Contains(supportedResponseFormats, t.ResponseFormat) {
		return fmt.Errorf("transcription.response_format must be one of %s (got %q)", strings.Join(supportedResponseFormats, ", "), t.ResponseFormat)
	}
	if t.Language != "" {
		if err := ValidateLanguage(t.Language); err != nil {
			return fmt.Errorf("transcription.language: %w", err)
		}
	}
	if t.Temperature != nil && (*t.Temperature < 0 || *t.Temperature > 1) {
		return errors.New("transcription.temperature must be between 0 and 1")
	}
	parsed, err := url.Parse(t.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("transcription.base_url must be an absolute URL (got %q)", t.BaseURL)
	}
	if t.RetryMaxSeconds < t.RetryBaseSeconds {
		return errors.New("transcription.retry_max_seconds must be >= retry_base_seconds")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if !slices.Contains(supportedOutputFormats, c.Output.Format) {
		return fmt.Errorf("output.format must be one of %s (got %q)", strings.Join(supportedOutputFormats, ", "), c.Output.Format)
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 1 || c.Batch.Workers > maxWorkers {
		return fmt.Errorf("batch.workers must be between 1 and %d (got %d)", maxWorkers, c.Batch.Workers)
	}
	return nil
}

func (c *Config) validateAudio() error {
	if !slices.Contains(supportedAudioFormats, c.Audio.Format) {
		return fmt.Errorf("audio.format must be one of %s (got %q)", strings.Join(supportedAudioFormats, ", "), c.Audio.Format)
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 48000 {
		return fmt.Errorf("audio.sample_rate must be between 8000 and 48000 (got %d)", c.Audio.SampleRate)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}

// ValidateLanguage accepts a two-letter ISO 639-1 code such as "en".
func ValidateLanguage(code string) error {
	if len(code) != 2 {
		return fmt.Errorf("expected a two-letter ISO 639-1 code, got %q", code)
	}
	if _, err := language.ParseBase(code); err != nil {
		return fmt.Errorf("unknown language %q", code)
	}
	return nil
}
