// Package subtitles turns transcript segments into timed subtitle cues and
// serializes them.
//
// BuildCues validates and repairs segment timing (ordering, overlaps,
// millisecond truncation) so every writer can assume well-formed,
// non-overlapping cues. Writers exist for SRT, WebVTT, plain text, and docx;
// SRT and WebVTT parsers read the files back for verification.
package subtitles
