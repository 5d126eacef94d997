// Package extraction converts a video file into an audio file small enough to
// upload for transcription.
//
// The ffmpeg-backed Extractor probes the input first so unreadable files and
// containers without audio surface as input errors rather than ffmpeg
// failures. ffmpeg and ffprobe invocations go through injectable runners so
// tests never need the real binaries.
package extraction
