// Package watcher monitors a directory for new video files and hands each one
// to a handler once it has stopped changing.
package watcher
