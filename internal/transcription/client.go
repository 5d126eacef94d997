package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidsub/internal/logging"
	"vidsub/internal/services"
	"vidsub/internal/subtitles"
)

const (
	stageTranscribing = "transcribing"

	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultTimeout = 5 * time.Minute

	// Models that only understand English reject an explicit language field.
	modelDistilWhisperEN = "distil-whisper-large-v3-en"

	responseJSON        = "json"
	responseVerboseJSON = "verbose_json"
	responseText        = "text"

	maxErrorBody = 4 << 10
)

// Audio is the extracted file handed to a Transcriber.
type Audio struct {
	Path string
	// Duration in seconds, used to time responses that carry no segments.
	Duration float64
}

// Transcriber submits audio and returns timed segments in start order.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) ([]subtitles.Segment, error)
}

// Config describes a Whisper endpoint and request parameters.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Language       string
	ResponseFormat string
	Temperature    *float64
	Prompt         string
	Timeout        time.Duration
}

// Client calls an OpenAI-compatible /audio/transcriptions endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	policy Policy
	logger *slog.Logger
	newID  func() string
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryPolicy overrides retry behaviour for transient failures.
func WithRetryPolicy(p Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithSleeper replaces the retry wait (tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.policy.Sleeper = sleeper
	}
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a transcription client.
func New(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.ResponseFormat = strings.ToLower(strings.TrimSpace(cfg.ResponseFormat))
	if cfg.ResponseFormat == "" {
		cfg.ResponseFormat = responseVerboseJSON
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		policy: DefaultPolicy(),
		logger: logging.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = logging.NewComponentLogger(c.logger, "transcription")
	return c
}

// Transcribe uploads the audio file and parses the response into segments.
// Transient and rate-limited failures are retried within the client's policy.
func (c *Client) Transcribe(ctx context.Context, audio Audio) ([]subtitles.Segment, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, stageTranscribing, "request", "api key is not configured", nil)
	}
	if strings.TrimSpace(c.cfg.Model) == "" {
		return nil, services.Wrap(services.ErrConfiguration, stageTranscribing, "request", "model is not configured", nil)
	}
	ctx = services.WithRequestID(ctx, c.newID())
	logger := logging.WithContext(ctx, c.logger)

	var segments []subtitles.Segment
	err := Retry(ctx, c.policy, func(ctx context.Context, attempt int) error {
		var err error
		segments, err = c.transcribeOnce(ctx, audio)
		return err
	}, func(attempt int, delay time.Duration, err error) {
		logger.Warn("transcription attempt failed; retrying",
			logging.String(logging.FieldEventType, "transcription_retry"),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.String("kind", services.Kind(err)),
			logging.Error(err),
		)
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("transcription complete",
		logging.String(logging.FieldEventType, "transcription_complete"),
		logging.Int("segments", len(segments)),
	)
	return segments, nil
}

func (c *Client) transcribeOnce(ctx context.Context, audio Audio) ([]subtitles.Segment, error) {
	body, contentType, err := c.buildForm(audio.Path)
	if err != nil {
		return nil, err
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "audio", "transcriptions")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageTranscribing, "request", "invalid base url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, stageTranscribing, "request", "build request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if id, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp, payload)
	}
	return parseResponse(c.cfg.ResponseFormat, payload, audio.Duration)
}

func (c *Client) buildForm(path string) (io.Reader, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", services.Wrap(services.ErrInput, stageTranscribing, "open audio", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", services.Wrap(services.ErrTranscription, stageTranscribing, "encode form", "", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", services.Wrap(services.ErrInput, stageTranscribing, "read audio", path, err)
	}

	fields := [][2]string{
		{"model", c.cfg.Model},
		{"response_format", c.cfg.ResponseFormat},
	}
	if lang := strings.TrimSpace(c.cfg.Language); lang != "" && c.cfg.Model != modelDistilWhisperEN {
		fields = append(fields, [2]string{"language", lang})
	}
	if c.cfg.Temperature != nil {
		fields = append(fields, [2]string{"temperature", strconv.FormatFloat(*c.cfg.Temperature, 'f', -1, 64)})
	}
	if prompt := strings.TrimSpace(c.cfg.Prompt); prompt != "" {
		fields = append(fields, [2]string{"prompt", prompt})
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, "", services.Wrap(services.ErrTranscription, stageTranscribing, "encode form", field[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", services.Wrap(services.ErrTranscription, stageTranscribing, "encode form", "", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

// HealthCheck verifies the endpoint is reachable and accepts the API key.
func (c *Client) HealthCheck(ctx context.Context) error {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "models")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageTranscribing, "health", "invalid base url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrTranscription, stageTranscribing, "health", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(resp, payload)
	}
	return nil
}

// StatusError carries a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, body)
}

func classifyStatus(resp *http.Response, payload []byte) error {
	if len(payload) > maxErrorBody {
		payload = payload[:maxErrorBody]
	}
	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		Body:       apiErrorMessage(payload),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, stageTranscribing, "request", "api key rejected", statusErr)
	case code == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, stageTranscribing, "request", "", statusErr)
	case code == http.StatusRequestTimeout || code >= 500:
		return services.Wrap(services.ErrTransient, stageTranscribing, "request", "", statusErr)
	default:
		return services.Wrap(services.ErrTranscription, stageTranscribing, "request", "request rejected", statusErr)
	}
}

// apiErrorMessage extracts {"error":{"message":...}} when present.
func apiErrorMessage(payload []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(payload)
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return services.Wrap(services.ErrCancelled, stageTranscribing, "request", "", err)
	}
	// Connection resets, DNS hiccups and timeouts are all worth another try.
	return services.Wrap(services.ErrTransient, stageTranscribing, "request", "network failure", err)
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay
		}
	}
	return 0
}
