package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

var (
	vttTimestampRegex = regexp.MustCompile(
		`(\d{2,}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2,}):(\d{2}):(\d{2})\.(\d{3})`,
	)
	vttShortTimestampRegex = regexp.MustCompile(
		`(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2})\.(\d{3})`,
	)
)

type VTTFile struct {
	entries []Entry
}

func parseVTT(r io.Reader) (*VTTFile, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var currentEntry *Entry
	var textLines []string
	lineNum := 0
	headerParsed := false

	flush := func() {
		if currentEntry != nil {
			currentEntry.Text = strings.Join(textLines, "\n")
			entries = append(entries, *currentEntry)
		}
		currentEntry = nil
		textLines = nil
	}

	skipBlock := func() {
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) == "" {
				break
			}
		}
	}

	for scanner.Scan() {
		line := scanLine(scanner)
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		if !headerParsed && strings.HasPrefix(trimmed, "WEBVTT") {
			headerParsed = true
			skipBlock()
			continue
		}

		if currentEntry == nil &&
			(strings.HasPrefix(trimmed, "NOTE") ||
				strings.HasPrefix(trimmed, "STYLE") ||
				strings.HasPrefix(trimmed, "REGION")) {
			skipBlock()
			continue
		}

		if trimmed == "" {
			flush()
			continue
		}

		start, end, ok, err := matchVTTTiming(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if ok {
			flush()
			currentEntry = &Entry{
				Index:     len(entries) + 1,
				StartTime: start,
				EndTime:   end,
			}
			continue
		}

		// cue identifiers precede the timing line and are not kept
		if currentEntry != nil {
			textLines = append(textLines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading VTT file: %w", err)
	}
	flush()

	return &VTTFile{entries: entries}, nil
}

func matchVTTTiming(line string) (start, end time.Duration, ok bool, err error) {
	if m := vttTimestampRegex.FindStringSubmatch(line); len(m) == 9 {
		if start, err = parseClockTimestamp(m[1], m[2], m[3], m[4]); err != nil {
			return 0, 0, false, fmt.Errorf("invalid start timestamp: %w", err)
		}
		if end, err = parseClockTimestamp(m[5], m[6], m[7], m[8]); err != nil {
			return 0, 0, false, fmt.Errorf("invalid end timestamp: %w", err)
		}
		return start, end, true, nil
	}

	if m := vttShortTimestampRegex.FindStringSubmatch(line); len(m) == 7 {
		if start, err = parseClockTimestamp("00", m[1], m[2], m[3]); err != nil {
			return 0, 0, false, fmt.Errorf("invalid start timestamp: %w", err)
		}
		if end, err = parseClockTimestamp("00", m[4], m[5], m[6]); err != nil {
			return 0, 0, false, fmt.Errorf("invalid end timestamp: %w", err)
		}
		return start, end, true, nil
	}

	return 0, 0, false, nil
}

func (f *VTTFile) Format() Format {
	return FormatVTT
}

func (f *VTTFile) Subtitle() *Subtitle {
	return &Subtitle{
		Entries: CloneEntries(f.entries),
		Format:  string(FormatVTT),
	}
}

func (f *VTTFile) SetText(index int, text string) error {
	if index < 0 || index >= len(f.entries) {
		return fmt.Errorf(
			"index %d out of range (0-%d)",
			index,
			len(f.entries)-1,
		)
	}
	f.entries[index].Text = text
	return nil
}

func (f *VTTFile) Compose(entries []Entry) ([]byte, error) {
	return (&VTTWriter{}).Encode(&Subtitle{
		Entries: entries,
		Format:  string(FormatVTT),
	})
}

func (f *VTTFile) Write(path string) error {
	return (&VTTWriter{}).Write(f.Subtitle(), path)
}
