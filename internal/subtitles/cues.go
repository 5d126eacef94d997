package subtitles

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"vidsub/internal/services"
)

// Segment is a transcribed span of speech as returned by the transcription
// service. Times are in seconds.
type Segment struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Text  string  `json:"text" yaml:"text"`
}

// Cue is one displayed subtitle entry. Times are in milliseconds.
type Cue struct {
	Index int
	Start int64
	End   int64
	Text  string
}

const stageFormatting = "formatting"

// maxSegmentSeconds keeps millisecond timestamps within int64.
const maxSegmentSeconds = math.MaxInt64 / 1000

// BuildCues converts segments into sequential, non-overlapping cues.
//
// Segments with blank text are dropped. Remaining segments are stably sorted by
// start time; segments sharing a start millisecond merge into one cue. When a
// cue runs past the next cue's start, its end is clamped to one millisecond
// before it. Times are truncated to the millisecond.
func BuildCues(segments []Segment) ([]Cue, error) {
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrFormat, stageFormatting, "build cues", "no segments to write", nil)
	}

	cues := make([]Cue, 0, len(segments))
	for i, seg := range segments {
		if err := checkSegmentTimes(i, seg); err != nil {
			return nil, err
		}
		text := CleanText(seg.Text)
		if text == "" {
			continue
		}
		start, end := toMillis(seg.Start), toMillis(seg.End)
		if end <= start {
			// Sub-millisecond segment; keep it visible for one millisecond.
			end = start + 1
		}
		cues = append(cues, Cue{Start: start, End: end, Text: text})
	}
	if len(cues) == 0 {
		return nil, services.Wrap(services.ErrFormat, stageFormatting, "build cues", "every segment has empty text", nil)
	}

	slices.SortStableFunc(cues, func(a, b Cue) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})

	cues = mergeSameStart(cues)
	clampOverlaps(cues)
	for i := range cues {
		cues[i].Index = i + 1
	}
	return cues, nil
}

func checkSegmentTimes(i int, seg Segment) error {
	for _, v := range []float64{seg.Start, seg.End} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return services.Wrap(services.ErrFormat, stageFormatting, "build cues", fmt.Sprintf("segment %d has a non-finite timestamp", i), nil)
		}
	}
	if seg.Start >= maxSegmentSeconds || seg.End >= maxSegmentSeconds {
		return services.Wrap(services.ErrFormat, stageFormatting, "build cues", fmt.Sprintf("segment %d has an out-of-range timestamp (%g -> %g)", i, seg.Start, seg.End), nil)
	}
	if seg.Start < 0 || seg.End < 0 {
		return services.Wrap(services.ErrFormat, stageFormatting, "build cues", fmt.Sprintf("segment %d has a negative timestamp (%.3f -> %.3f)", i, seg.Start, seg.End), nil)
	}
	if seg.Start >= seg.End && strings.TrimSpace(seg.Text) != "" {
		return services.Wrap(services.ErrFormat, stageFormatting, "build cues", fmt.Sprintf("segment %d starts at or after its end (%.3f -> %.3f)", i, seg.Start, seg.End), nil)
	}
	return nil
}

func mergeSameStart(cues []Cue) []Cue {
	merged := cues[:0]
	for _, cue := range cues {
		if n := len(merged); n > 0 && merged[n-1].Start == cue.Start {
			last := &merged[n-1]
			last.Text += "\n" + cue.Text
			last.End = max(last.End, cue.End)
			continue
		}
		merged = append(merged, cue)
	}
	return merged
}

func clampOverlaps(cues []Cue) {
	for i := 0; i+1 < len(cues); i++ {
		next := cues[i+1].Start
		if cues[i].End <= next {
			continue
		}
		end := next - 1
		if end <= cues[i].Start {
			end = next
		}
		cues[i].End = end
	}
}

// toMillis truncates seconds to whole milliseconds. The epsilon absorbs float
// representation error such as 1.001*1000 = 1000.9999999999999.
func toMillis(seconds float64) int64 {
	return int64(math.Floor(seconds*1000 + 1e-6))
}

// CleanText normalizes cue text: NFC, trimmed lines, blank lines removed.
func CleanText(text string) string {
	text = norm.NFC.String(strings.ReplaceAll(text, "\r\n", "\n"))
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
