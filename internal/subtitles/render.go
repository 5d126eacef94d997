package subtitles

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vidsub/internal/fileutil"
	"vidsub/internal/services"
)

// Format identifies an output file format.
type Format string

const (
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatText Format = "txt"
	FormatDOCX Format = "docx"
)

// ParseFormat resolves a user supplied format name.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), ".")); f {
	case FormatSRT, FormatVTT, FormatText, FormatDOCX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported subtitle format %q", value)
	}
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Render writes cues in a streamable format. DOCX needs a file path and goes
// through WriteFile instead.
func Render(w io.Writer, format Format, cues []Cue) error {
	switch format {
	case FormatSRT:
		return WriteSRT(w, cues)
	case FormatVTT:
		return WriteVTT(w, cues)
	case FormatText:
		return WriteText(w, cues)
	default:
		return fmt.Errorf("format %q cannot be streamed", format)
	}
}

// WriteFile formats segments and atomically writes them to path. Nothing is
// written when cue building fails.
func WriteFile(path string, format Format, segments []Segment) ([]Cue, error) {
	cues, err := BuildCues(segments)
	if err != nil {
		return nil, err
	}
	if format == FormatDOCX {
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		err = fileutil.ReplaceAtomic(path, 0o644, func(tmpPath string) error {
			return WriteDOCX(tmpPath, title, cues)
		})
	} else {
		err = fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
			return Render(w, format, cues)
		})
	}
	if err != nil {
		return nil, services.Wrap(services.ErrFormat, stageFormatting, "write", path, err)
	}
	return cues, nil
}

// ReadFile parses an SRT or WebVTT file.
func ReadFile(path string) ([]Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.HasSuffix(strings.ToLower(path), FormatVTT.Extension()) {
		return ParseVTT(f)
	}
	return ParseSRT(f)
}
