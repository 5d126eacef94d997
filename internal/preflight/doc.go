// Package preflight provides readiness checks for the binaries, directories
// and hosted API that vidsub depends on.
//
// The CLI "vidsub check" command runs every check and renders the results;
// "vidsub process" runs the local checks before starting a batch so a missing
// ffmpeg fails once instead of once per file.
package preflight
