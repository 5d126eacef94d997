// Package audio picks the audio stream to transcribe from a probed container.
//
// Candidates are ranked by:
//  1. Language match with the requested transcription language
//  2. Non-commentary tracks over commentary
//  3. The container's default flag
//  4. Channel count, as a proxy for the main mix
//
// Earlier streams win ties.
package audio
