package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteSRT serializes cues as SubRip.
func WriteSRT(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for _, cue := range cues {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", cue.Index, FormatTimestamp(cue.Start, ','), FormatTimestamp(cue.End, ','), cue.Text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ParseSRT reads SubRip content back into cues.
func ParseSRT(r io.Reader) ([]Cue, error) {
	blocks, err := readBlocks(r)
	if err != nil {
		return nil, err
	}
	cues := make([]Cue, 0, len(blocks))
	for n, block := range blocks {
		lines := block
		index := n + 1
		if len(lines) > 0 && isNumeric(lines[0]) {
			index, _ = strconv.Atoi(lines[0])
			lines = lines[1:]
		}
		cue, err := parseCueLines(lines)
		if err != nil {
			return nil, fmt.Errorf("srt block %d: %w", n+1, err)
		}
		cue.Index = index
		cues = append(cues, cue)
	}
	return cues, nil
}

// readBlocks splits content into blank-line separated blocks of trimmed lines.
func readBlocks(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	content := strings.TrimPrefix(string(data), "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var blocks [][]string
	var current []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks, nil
}

func parseCueLines(lines []string) (Cue, error) {
	if len(lines) == 0 || !strings.Contains(lines[0], "-->") {
		return Cue{}, fmt.Errorf("missing timing line")
	}
	startText, rest, _ := strings.Cut(lines[0], "-->")
	// WebVTT cue settings may follow the end timestamp.
	endFields := strings.Fields(rest)
	if len(endFields) == 0 {
		return Cue{}, fmt.Errorf("missing end timestamp")
	}
	start, err := parseTimestamp(startText)
	if err != nil {
		return Cue{}, err
	}
	end, err := parseTimestamp(endFields[0])
	if err != nil {
		return Cue{}, err
	}
	return Cue{Start: start, End: end, Text: strings.Join(lines[1:], "\n")}, nil
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
