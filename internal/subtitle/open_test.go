package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const assHeader = `[Script Info]
Title: Test Subtitles
ScriptType: v4.00+

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		format  Format
		want    []Entry
	}{
		{
			name: "srt",
			file: "test.srt",
			content: `1
00:00:01,000 --> 00:00:04,000
Hello, world!

2
00:00:05,500 --> 00:00:08,200
This is a test.
With multiple lines.
`,
			format: FormatSRT,
			want: []Entry{
				{Index: 1, StartTime: time.Second, EndTime: 4 * time.Second, Text: "Hello, world!"},
				{Index: 2, StartTime: 5500 * time.Millisecond, EndTime: 8200 * time.Millisecond, Text: "This is a test.\nWith multiple lines."},
			},
		},
		{
			name: "vtt without cue ids",
			file: "test.vtt",
			content: `WEBVTT

1
00:00:01.000 --> 00:00:04.000
Hello, world!

00:10.000 --> 00:12.500
No cue identifier.
`,
			format: FormatVTT,
			want: []Entry{
				{Index: 1, StartTime: time.Second, EndTime: 4 * time.Second, Text: "Hello, world!"},
				{Index: 2, StartTime: 10 * time.Second, EndTime: 12500 * time.Millisecond, Text: "No cue identifier."},
			},
		},
		{
			name: "ass",
			file: "test.ass",
			content: assHeader +
				"Dialogue: 0,0:00:01.00,0:00:04.00,Default,,0,0,0,,Hello, world!\n" +
				"Dialogue: 0,0:00:10.00,0:00:12.50,Default,,0,0,0,,Line with\\Nnewline.\n",
			format: FormatASS,
			want: []Entry{
				{Index: 1, StartTime: time.Second, EndTime: 4 * time.Second, Text: "Hello, world!"},
				{Index: 2, StartTime: 10 * time.Second, EndTime: 12500 * time.Millisecond, Text: "Line with\nnewline."},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}

			file, err := Open(path)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if file.Format() != tt.format {
				t.Errorf("format = %s, want %s", file.Format(), tt.format)
			}

			got := file.Subtitle().Entries
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}

			if err := file.SetText(0, "Modified text"); err != nil {
				t.Fatalf("SetText failed: %v", err)
			}
			if file.Subtitle().Entries[0].Text != "Modified text" {
				t.Error("SetText did not update text")
			}
			if err := file.SetText(len(tt.want), "x"); err == nil {
				t.Error("SetText past the end should fail")
			}
		})
	}
}

func TestASSComposePreservesStyles(t *testing.T) {
	content := `[Script Info]
Title: Test Subtitles
ScriptType: v4.00+
PlayDepth: 0

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1
Style: Italic,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,1,0,0,100,100,0,0,1,2,2,2,10,10,10,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.00,0:00:04.00,Default,,0,0,0,,Original text
Comment: 0,0:00:04.00,0:00:05.00,Default,,0,0,0,,note to self
Dialogue: 0,0:00:05.00,0:00:08.00,Italic,,0,0,0,,{\pos(100,200)}Tagged text
`
	file, err := Parse(strings.NewReader(content), FormatASS)
	if err != nil {
		t.Fatalf("failed to parse ASS: %v", err)
	}

	entries := file.Subtitle().Entries
	if entries[1].Text != "{\\pos(100,200)}Tagged text" {
		t.Fatalf("entry 1: inline tags should be kept, got %q", entries[1].Text)
	}

	translated := []Entry{
		entries[0].WithText("Teks terjemahan"),
		entries[1].WithText("{\\pos(100,200)}Baris satu\nbaris dua"),
	}
	out, err := file.Compose(translated)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	outStr := string(out)

	if !strings.Contains(outStr, "Style: Default,Arial,20") {
		t.Error("Default style not preserved")
	}
	if !strings.Contains(outStr, "Style: Italic,Arial,20") {
		t.Error("Italic style not preserved")
	}
	if !strings.Contains(outStr, "Dialogue: 0,0:00:01.00,0:00:04.00,Default,,0,0,0,,Teks terjemahan") {
		t.Errorf("first dialogue not replaced, got: %s", outStr)
	}
	if !strings.Contains(outStr, "Comment: 0,0:00:04.00,0:00:05.00,Default,,0,0,0,,note to self") {
		t.Error("comment line not preserved")
	}
	if !strings.Contains(outStr, "Dialogue: 0,0:00:05.00,0:00:08.00,Italic,,0,0,0,,{\\pos(100,200)}Baris satu\\Nbaris dua") {
		t.Errorf("second dialogue not replaced, got: %s", outStr)
	}

	// the parsed file itself is untouched by Compose
	if file.Subtitle().Entries[0].Text != "Original text" {
		t.Error("Compose mutated the parsed file")
	}

	if _, err := file.Compose(translated[:1]); err == nil {
		t.Error("expected error for entry count mismatch")
	}
}

func TestSplitASSFields(t *testing.T) {
	tests := []struct {
		input     string
		numFields int
		want      []string
	}{
		{
			input:     "0,0:00:01.00,Hello, world",
			numFields: 3,
			want:      []string{"0", "0:00:01.00", "Hello, world"},
		},
		{
			input:     "a,b",
			numFields: 4,
			want:      []string{"a", "b"},
		},
		{
			input:     "only",
			numFields: 1,
			want:      []string{"only"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := splitASSFields(tt.input, tt.numFields)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenUnsupportedFormat(t *testing.T) {
	tmpDir := t.TempDir()
	txtPath := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(txtPath, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err := Open(txtPath)
	if err == nil {
		t.Error("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected 'unsupported' in error, got: %v", err)
	}
}
