package main

import (
	"log/slog"
	"time"

	"vidsub/internal/config"
	"vidsub/internal/extraction"
	"vidsub/internal/transcription"
)

func newExtractor(cfg *config.Config, logger *slog.Logger) *extraction.FFmpeg {
	return extraction.New(extraction.Config{
		FFmpegBinary:   cfg.Paths.FFmpegBinary,
		FFprobeBinary:  cfg.Paths.FFprobeBinary,
		Format:         cfg.Audio.Format,
		SampleRate:     cfg.Audio.SampleRate,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Language:       cfg.Transcription.Language,
	}, logger)
}

func newTranscriber(cfg *config.Config, logger *slog.Logger) *transcription.Client {
	tc := cfg.Transcription
	return transcription.New(transcription.Config{
		APIKey:         tc.APIKey,
		BaseURL:        tc.BaseURL,
		Model:          tc.Model,
		Language:       tc.Language,
		ResponseFormat: tc.ResponseFormat,
		Temperature:    tc.Temperature,
		Prompt:         tc.Prompt,
		Timeout:        time.Duration(tc.TimeoutSeconds) * time.Second,
	},
		transcription.WithLogger(logger),
		transcription.WithRetryPolicy(transcription.Policy{
			MaxAttempts: tc.MaxAttempts,
			BaseDelay:   seconds(tc.RetryBaseSeconds),
			MaxDelay:    seconds(tc.RetryMaxSeconds),
		}),
	)
}

func seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}
