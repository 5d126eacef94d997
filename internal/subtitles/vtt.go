package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const vttHeader = "WEBVTT"

// WriteVTT serializes cues as WebVTT with numeric cue identifiers.
func WriteVTT(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(vttHeader + "\n\n"); err != nil {
		return err
	}
	for _, cue := range cues {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", cue.Index, FormatTimestamp(cue.Start, '.'), FormatTimestamp(cue.End, '.'), cue.Text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ParseVTT reads WebVTT content back into cues. NOTE, STYLE and REGION blocks
// are skipped.
func ParseVTT(r io.Reader) ([]Cue, error) {
	blocks, err := readBlocks(r)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 || !strings.HasPrefix(blocks[0][0], vttHeader) {
		return nil, fmt.Errorf("missing %s header", vttHeader)
	}

	var cues []Cue
	for n, block := range blocks[1:] {
		switch {
		case strings.HasPrefix(block[0], "NOTE"), block[0] == "STYLE", block[0] == "REGION":
			continue
		}
		lines := block
		if !strings.Contains(lines[0], "-->") {
			// Cue identifier.
			lines = lines[1:]
		}
		cue, err := parseCueLines(lines)
		if err != nil {
			return nil, fmt.Errorf("vtt block %d: %w", n+2, err)
		}
		cue.Index = len(cues) + 1
		cues = append(cues, cue)
	}
	return cues, nil
}
