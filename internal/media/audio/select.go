package audio

import (
	"fmt"
	"strings"

	"vidsub/internal/language"
	"vidsub/internal/media/ffprobe"
)

// Selection describes the chosen stream.
type Selection struct {
	Primary ffprobe.Stream
	// AudioIndex is the position among audio streams, suitable for ffmpeg's
	// "-map 0:a:N". It is -1 when the container has no audio.
	AudioIndex int
	// LanguageMatch reports whether the chosen stream carries the requested language.
	LanguageMatch bool
}

// Found reports whether a stream was selected.
func (s Selection) Found() bool {
	return s.AudioIndex >= 0
}

// Label returns a human-readable summary of the selected stream.
func (s Selection) Label() string {
	if !s.Found() {
		return ""
	}
	parts := make([]string, 0, 3)
	if lang := s.Primary.Tag("language"); lang != "" {
		parts = append(parts, strings.ToLower(lang))
	}
	if s.Primary.CodecName != "" {
		parts = append(parts, s.Primary.CodecName)
	}
	if s.Primary.Channels > 0 {
		parts = append(parts, fmt.Sprintf("%dch", s.Primary.Channels))
	}
	return strings.Join(parts, " ")
}

// Select returns the stream to transcribe. preferred is an ISO 639 code; empty
// disables language preference.
func Select(streams []ffprobe.Stream, preferred string) Selection {
	best := Selection{AudioIndex: -1}
	bestScore := -1
	order := 0
	for _, stream := range streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		matches := preferred != "" && language.Matches(stream.Tag("language", "language_ietf"), preferred)
		if score := scoreStream(stream, matches); score > bestScore {
			best = Selection{Primary: stream, AudioIndex: order, LanguageMatch: matches}
			bestScore = score
		}
		order++
	}
	return best
}

func scoreStream(stream ffprobe.Stream, languageMatch bool) int {
	score := 0
	if languageMatch {
		score += 10_000
	}
	if !isCommentary(stream) {
		score += 1_000
	}
	if stream.Disposition["default"] == 1 {
		score += 100
	}
	score += min(stream.Channels, 8)
	return score
}

func isCommentary(stream ffprobe.Stream) bool {
	if stream.Disposition["comment"] == 1 {
		return true
	}
	title := strings.ToLower(stream.Tag("title", "handler_name"))
	return strings.Contains(title, "commentary")
}
