// Package ffprobe wraps the ffprobe binary and decodes its JSON stream and
// container report. Helpers expose the facts the pipeline needs: audio stream
// metadata and container duration.
package ffprobe
