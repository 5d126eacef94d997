package subtitles

import (
	"fmt"
	"strings"

	"github.com/gomutex/godocx"
)

const (
	docxFont     = "Calibri"
	docxFontSize = 11
)

// WriteDOCX saves cues to a Word document at path under a bold title, one
// paragraph per cue with a grey timing line above the text.
func WriteDOCX(path, title string, cues []Cue) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	doc.AddParagraph("").AddText(title).Font(docxFont).Size(16).Color("000000").Bold(true)
	doc.AddParagraph("")

	for _, cue := range cues {
		timing := fmt.Sprintf("%s --> %s", FormatTimestamp(cue.Start, '.'), FormatTimestamp(cue.End, '.'))
		doc.AddParagraph("").AddText(timing).Font(docxFont).Size(9).Color("808080")
		for _, line := range strings.Split(cue.Text, "\n") {
			doc.AddParagraph("").AddText(line).Font(docxFont).Size(docxFontSize).Color("000000")
		}
	}

	return doc.SaveTo(path)
}
