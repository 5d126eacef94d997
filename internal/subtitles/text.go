package subtitles

import (
	"bufio"
	"io"
)

// WriteText writes the transcript as plain text, one cue per line group.
func WriteText(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for _, cue := range cues {
		if _, err := bw.WriteString(cue.Text + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
