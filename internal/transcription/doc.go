// Package transcription uploads extracted audio to a hosted Whisper endpoint
// and returns timed transcript segments.
//
// Transcriber is the narrow seam the batch runner depends on; Client is the
// HTTP implementation for Groq's OpenAI-compatible API. Failures are tagged
// with the services error markers so transient and rate-limited responses are
// retried with exponential backoff while authentication and request errors
// fail fast.
package transcription
