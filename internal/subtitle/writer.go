package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

// Advanced SubStation Alpha format, used when no source script is available
type ASSWriter struct {
	Title    string
	FontName string
	FontSize int
}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	case FormatASS:
		return &ASSWriter{
			Title:    "Anuvad Translated Subtitles",
			FontName: "Arial",
			FontSize: 20,
		}, nil
	case FormatTTML:
		return &TTMLWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func (w *SRTWriter) Encode(sub *Subtitle) ([]byte, error) {
	var sb strings.Builder
	for i, entry := range sub.Entries {
		// entries are renumbered from 1 on output
		fmt.Fprintf(&sb, "%d\n", i+1)
		fmt.Fprintf(&sb, "%s --> %s\n",
			FormatTimestamp(entry.StartTime),
			FormatTimestamp(entry.EndTime))
		sb.WriteString(cueText(entry.Text))
		sb.WriteString("\n\n")
	}
	return []byte(sb.String()), nil
}

func (w *SRTWriter) Write(sub *Subtitle, path string) error {
	return encodeToFile(w, sub, path)
}

func (w *VTTWriter) Encode(sub *Subtitle) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")

	for i, entry := range sub.Entries {
		fmt.Fprintf(&sb, "%d\n", i+1)
		fmt.Fprintf(&sb, "%s --> %s\n",
			formatVTTTime(entry.StartTime),
			formatVTTTime(entry.EndTime))
		sb.WriteString(cueText(entry.Text))
		sb.WriteString("\n\n")
	}
	return []byte(sb.String()), nil
}

func (w *VTTWriter) Write(sub *Subtitle, path string) error {
	return encodeToFile(w, sub, path)
}

func (w *ASSWriter) Encode(sub *Subtitle) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	fmt.Fprintf(&sb, "Title: %s\n", w.Title)
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("Collisions: Normal\n")
	sb.WriteString("PlayDepth: 0\n\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&sb, "Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n\n",
		w.FontName, w.FontSize)

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, entry := range sub.Entries {
		fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(entry.StartTime),
			formatASSTime(entry.EndTime),
			escapeASSText(entry.Text))
	}
	return []byte(sb.String()), nil
}

func (w *ASSWriter) Write(sub *Subtitle, path string) error {
	return encodeToFile(w, sub, path)
}

type encoder interface {
	Encode(sub *Subtitle) ([]byte, error)
}

func encodeToFile(enc encoder, sub *Subtitle, path string) error {
	data, err := enc.Encode(sub)
	if err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// HH:MM:SS,mmm as used by SubRip and the pairs export
func FormatTimestamp(d time.Duration) string {
	hours, minutes, seconds, millis := splitDuration(d)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

func formatVTTTime(d time.Duration) string {
	hours, minutes, seconds, millis := splitDuration(d)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

func formatASSTime(d time.Duration) string {
	hours, minutes, seconds, millis := splitDuration(d)
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, millis/10)
}

func splitDuration(d time.Duration) (hours, minutes, seconds, millis int) {
	if d < 0 {
		d = 0
	}
	hours = int(d.Hours())
	minutes = int(d.Minutes()) % 60
	seconds = int(d.Seconds()) % 60
	millis = int(d.Milliseconds()) % 1000
	return hours, minutes, seconds, millis
}

// a blank line ends a cue, so empty lines inside the text are dropped
func cueText(text string) string {
	if !strings.Contains(text, "\n") {
		return text
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func escapeASSText(text string) string {
	return strings.ReplaceAll(text, "\n", "\\N")
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// subtitle format based on file extension, empty when unknown
func FormatFromPath(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return FormatSRT
	case ".vtt":
		return FormatVTT
	case ".ass", ".ssa":
		return FormatASS
	case ".ttml", ".dfxp", ".xml":
		return FormatTTML
	default:
		return ""
	}
}

// file extension for a format
func ExtensionForFormat(format Format) string {
	switch format {
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	case FormatTTML:
		return ".ttml"
	default:
		return ".srt"
	}
}
