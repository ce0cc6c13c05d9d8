package subtitle

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/asticode/go-astisub"
)

// TTML/DFXP document; styles, regions and metadata survive a Compose
type TTMLFile struct {
	subs *astisub.Subtitles
}

func parseTTML(r io.Reader) (*TTMLFile, error) {
	subs, err := astisub.ReadFromTTML(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTML: %w", err)
	}
	return &TTMLFile{subs: subs}, nil
}

func (f *TTMLFile) Format() Format {
	return FormatTTML
}

func (f *TTMLFile) Subtitle() *Subtitle {
	entries := make([]Entry, len(f.subs.Items))
	for i, item := range f.subs.Items {
		entries[i] = Entry{
			Index:     i + 1,
			StartTime: item.StartAt,
			EndTime:   item.EndAt,
			Text:      ttmlItemText(item),
		}
	}
	return &Subtitle{
		Entries: entries,
		Format:  string(FormatTTML),
	}
}

func ttmlItemText(item *astisub.Item) string {
	lines := make([]string, 0, len(item.Lines))
	for _, line := range item.Lines {
		parts := make([]string, 0, len(line.Items))
		for _, li := range line.Items {
			if t := strings.TrimSpace(li.Text); t != "" {
				parts = append(parts, t)
			}
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

// one line per text line, each with a single span carrying the first span's style
func ttmlLines(template []astisub.Line, text string) []astisub.Line {
	var first astisub.LineItem
	voice := ""
	if len(template) > 0 {
		voice = template[0].VoiceName
		if len(template[0].Items) > 0 {
			first = template[0].Items[0]
		}
	}

	split := strings.Split(text, "\n")
	lines := make([]astisub.Line, len(split))
	for i, s := range split {
		li := first
		li.Text = s
		lines[i] = astisub.Line{
			Items:     []astisub.LineItem{li},
			VoiceName: voice,
		}
	}
	return lines
}

func (f *TTMLFile) SetText(index int, text string) error {
	if index < 0 || index >= len(f.subs.Items) {
		return fmt.Errorf(
			"index %d out of range (0-%d)",
			index,
			len(f.subs.Items)-1,
		)
	}
	item := f.subs.Items[index]
	item.Lines = ttmlLines(item.Lines, text)
	return nil
}

func (f *TTMLFile) Compose(entries []Entry) ([]byte, error) {
	if len(entries) != len(f.subs.Items) {
		return nil, fmt.Errorf(
			"expected %d entries, got %d",
			len(f.subs.Items),
			len(entries),
		)
	}

	out := *f.subs
	out.Items = make([]*astisub.Item, len(f.subs.Items))
	for i, item := range f.subs.Items {
		c := *item
		c.Lines = ttmlLines(item.Lines, entries[i].Text)
		out.Items[i] = &c
	}

	var buf bytes.Buffer
	if err := out.WriteToTTML(&buf); err != nil {
		return nil, fmt.Errorf("failed to write TTML: %w", err)
	}
	return buf.Bytes(), nil
}

func (f *TTMLFile) Write(path string) error {
	data, err := f.Compose(f.Subtitle().Entries)
	if err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// TTML output for tracks with no source document
type TTMLWriter struct{}

func (w *TTMLWriter) Encode(sub *Subtitle) ([]byte, error) {
	subs := astisub.NewSubtitles()
	for _, e := range sub.Entries {
		subs.Items = append(subs.Items, &astisub.Item{
			StartAt: e.StartTime,
			EndAt:   e.EndTime,
			Lines:   ttmlLines(nil, e.Text),
		})
	}

	var buf bytes.Buffer
	if err := subs.WriteToTTML(&buf); err != nil {
		return nil, fmt.Errorf("failed to write TTML: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *TTMLWriter) Write(sub *Subtitle, path string) error {
	return encodeToFile(w, sub, path)
}
