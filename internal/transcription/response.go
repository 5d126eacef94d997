package transcription

import (
	"encoding/json"
	"sort"
	"strings"

	"vidsub/internal/services"
	"vidsub/internal/subtitles"
)

type verboseResponse struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
	Segments []verboseSegment `json:"segments"`
}

type verboseSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// parseResponse converts an API payload into segments ordered by start time.
// Formats without timing yield a single segment spanning the whole media.
func parseResponse(format string, payload []byte, duration float64) ([]subtitles.Segment, error) {
	switch format {
	case responseText:
		return wholeSegment(string(payload), duration)
	case responseJSON:
		var resp struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(payload, &resp); err != nil {
			return nil, services.Wrap(services.ErrTranscription, stageTranscribing, "decode", "invalid json response", err)
		}
		return wholeSegment(resp.Text, duration)
	default:
		var resp verboseResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			return nil, services.Wrap(services.ErrTranscription, stageTranscribing, "decode", "invalid verbose_json response", err)
		}
		if len(resp.Segments) == 0 {
			if resp.Duration > 0 {
				duration = resp.Duration
			}
			return wholeSegment(resp.Text, duration)
		}
		segments := make([]subtitles.Segment, 0, len(resp.Segments))
		for _, seg := range resp.Segments {
			segments = append(segments, subtitles.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
		}
		sort.SliceStable(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })
		return segments, nil
	}
}

func wholeSegment(text string, duration float64) ([]subtitles.Segment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if duration <= 0 {
		return nil, services.Wrap(services.ErrFormat, stageTranscribing, "decode", "response has no timing and media duration is unknown", nil)
	}
	return []subtitles.Segment{{Start: 0, End: duration, Text: text}}, nil
}
