package config

const (
	defaultBaseURL          = "https://api.groq.com/openai/v1"
	defaultModel            = ModelWhisperLargeV3Turbo
	defaultLanguage         = "en"
	defaultResponseFormat   = ResponseVerboseJSON
	defaultTimeoutSeconds   = 600
	defaultMaxAttempts      = 5
	defaultRetryBaseSeconds = 1
	defaultRetryMaxSeconds  = 30
	defaultOutputFormat     = "srt"
	defaultWorkers          = 4
	defaultAudioFormat      = "mp3"
	defaultSampleRate       = 16000
	defaultMaxUploadMB      = 25
	defaultStateDir         = "~/.local/state/vidsub"
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultConfigPath       = "~/.config/vidsub/config.toml"

	maxWorkers = 32
)

// Supported transcription models.
const (
	ModelWhisperLargeV3      = "whisper-large-v3"
	ModelWhisperLargeV3Turbo = "whisper-large-v3-turbo"
	ModelDistilWhisperEN     = "distil-whisper-large-v3-en"
)

// Supported transcription response formats.
const (
	ResponseJSON        = "json"
	ResponseVerboseJSON = "verbose_json"
	ResponseText        = "text"
)

var (
	supportedModels          = []string{ModelWhisperLargeV3, ModelWhisperLargeV3Turbo, ModelDistilWhisperEN}
	supportedResponseFormats = []string{ResponseJSON, ResponseVerboseJSON, ResponseText}
	supportedOutputFormats   = []string{"srt", "vtt", "txt", "docx"}
	supportedAudioFormats    = []string{"mp3", "wav", "m4a"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Transcription: Transcription{
			BaseURL:          defaultBaseURL,
			Model:            defaultModel,
			Language:         defaultLanguage,
			ResponseFormat:   defaultResponseFormat,
			TimeoutSeconds:   defaultTimeoutSeconds,
			MaxAttempts:      defaultMaxAttempts,
			RetryBaseSeconds: defaultRetryBaseSeconds,
			RetryMaxSeconds:  defaultRetryMaxSeconds,
		},
		Output: Output{
			Format: defaultOutputFormat,
		},
		Batch: Batch{
			Workers: defaultWorkers,
			History: true,
		},
		Audio: Audio{
			Format:      defaultAudioFormat,
			SampleRate:  defaultSampleRate,
			MaxUploadMB: defaultMaxUploadMB,
		},
		Paths: Paths{
			StateDir:      defaultStateDir,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
