// Package batch drives the per-file pipeline: discover inputs, extract audio,
// transcribe it, format subtitles, write them atomically and record the
// outcome.
//
// Jobs run on a bounded worker pool and are isolated from one another: a
// failure in one file is captured on its job and reported in the Summary,
// never returned as an error from Run. Cancelling the batch context stops new
// dispatches; jobs that never started are reported as cancelled.
package batch
