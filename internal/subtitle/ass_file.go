package subtitle

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// single Dialogue line split into its Format columns
type assDialogue struct {
	fields []string
}

// parsed ASS/SSA script; everything except Dialogue text is written back untouched
type ASSFile struct {
	preEventsLines  []string
	formatLine      string
	formatColumns   []string
	textColumnIndex int
	startColumn     int
	endColumn       int
	// event lines in order; dialogue lines are nil placeholders filled from dialogues
	eventLines []*string
	dialogues  []assDialogue
}

func parseASS(r io.Reader) (*ASSFile, error) {
	assFile := &ASSFile{
		textColumnIndex: -1,
		startColumn:     -1,
		endColumn:       -1,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	inEventsSection := false
	lineNum := 0

	for scanner.Scan() {
		line := scanLine(scanner)
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		trimmedLine := strings.TrimSpace(line)

		if !inEventsSection {
			assFile.preEventsLines = append(assFile.preEventsLines, line)
			if isASSSection(trimmedLine) && sectionName(trimmedLine) == "events" {
				inEventsSection = true
			}
			continue
		}

		if isASSSection(trimmedLine) {
			// trailing sections such as [Fonts] are kept as opaque event lines
			l := line
			assFile.eventLines = append(assFile.eventLines, &l)
			continue
		}

		if strings.HasPrefix(trimmedLine, "Format:") && assFile.formatLine == "" {
			if err := assFile.parseFormatLine(line); err != nil {
				return nil, err
			}
			continue
		}

		if strings.HasPrefix(trimmedLine, "Dialogue:") {
			dialogue, err := assFile.parseDialogueLine(trimmedLine)
			if err != nil {
				return nil, fmt.Errorf(
					"failed to parse Dialogue at line %d: %w",
					lineNum,
					err,
				)
			}
			assFile.dialogues = append(assFile.dialogues, dialogue)
			assFile.eventLines = append(assFile.eventLines, nil)
			continue
		}

		l := line
		assFile.eventLines = append(assFile.eventLines, &l)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASS file: %w", err)
	}

	if assFile.formatLine == "" {
		return nil, fmt.Errorf(
			"ASS file missing Format line in [Events] section",
		)
	}

	return assFile, nil
}

func isASSSection(line string) bool {
	return strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]")
}

func sectionName(line string) string {
	return strings.ToLower(
		strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"),
	)
}

func (f *ASSFile) parseFormatLine(line string) error {
	f.formatLine = line
	formatPart := strings.TrimPrefix(strings.TrimSpace(line), "Format:")
	columns := strings.Split(formatPart, ",")
	for i, col := range columns {
		columns[i] = strings.TrimSpace(col)
		switch strings.ToLower(columns[i]) {
		case "text":
			f.textColumnIndex = i
		case "start":
			f.startColumn = i
		case "end":
			f.endColumn = i
		}
	}
	f.formatColumns = columns

	if f.textColumnIndex == -1 {
		return fmt.Errorf("ASS file missing Text column in Format line")
	}
	return nil
}

func (f *ASSFile) parseDialogueLine(line string) (assDialogue, error) {
	if f.formatLine == "" {
		return assDialogue{}, fmt.Errorf("format columns not parsed yet")
	}

	content := strings.TrimSpace(strings.TrimPrefix(line, "Dialogue:"))
	numColumns := len(f.formatColumns)

	parts := splitASSFields(content, numColumns)
	if len(parts) < numColumns {
		return assDialogue{}, fmt.Errorf(
			"expected %d fields, got %d",
			numColumns,
			len(parts),
		)
	}

	return assDialogue{fields: parts}, nil
}

// splits on commas except inside the last field, which may contain any text
func splitASSFields(content string, numFields int) []string {
	if numFields <= 0 {
		return nil
	}

	parts := make([]string, 0, numFields)
	remaining := content

	for i := 0; i < numFields-1; i++ {
		idx := strings.Index(remaining, ",")
		if idx == -1 {
			parts = append(parts, remaining)
			return parts
		}
		parts = append(parts, remaining[:idx])
		remaining = remaining[idx+1:]
	}

	return append(parts, remaining)
}

func (f *ASSFile) Format() Format {
	return FormatASS
}

func (f *ASSFile) Subtitle() *Subtitle {
	entries := make([]Entry, len(f.dialogues))

	for i, d := range f.dialogues {
		entries[i] = Entry{
			Index:     i + 1,
			StartTime: f.columnTime(d, f.startColumn),
			EndTime:   f.columnTime(d, f.endColumn),
			Text:      unescapeASSText(d.fields[f.textColumnIndex]),
		}
	}

	return &Subtitle{
		Entries: entries,
		Format:  string(FormatASS),
	}
}

func (f *ASSFile) columnTime(d assDialogue, column int) time.Duration {
	if column < 0 || column >= len(d.fields) {
		return 0
	}
	return parseASSTimestamp(d.fields[column])
}

func unescapeASSText(text string) string {
	text = strings.ReplaceAll(text, "\\N", "\n")
	return strings.ReplaceAll(text, "\\n", "\n")
}

func parseASSTimestamp(ts string) time.Duration {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	if len(parts) != 3 {
		return 0
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}

	secParts := strings.Split(parts[2], ".")
	if len(secParts) != 2 {
		return 0
	}

	seconds, err := strconv.Atoi(secParts[0])
	if err != nil {
		return 0
	}

	centis, err := strconv.Atoi(secParts[1])
	if err != nil {
		return 0
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(centis)*10*time.Millisecond
}

func (f *ASSFile) SetText(index int, text string) error {
	if index < 0 || index >= len(f.dialogues) {
		return fmt.Errorf(
			"index %d out of range (0-%d)",
			index,
			len(f.dialogues)-1,
		)
	}

	f.dialogues[index].fields[f.textColumnIndex] = escapeASSText(text)
	return nil
}

// renders the script with each dialogue text replaced by the matching entry
func (f *ASSFile) Compose(entries []Entry) ([]byte, error) {
	if len(entries) != len(f.dialogues) {
		return nil, fmt.Errorf(
			"expected %d entries, got %d",
			len(f.dialogues),
			len(entries),
		)
	}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	for _, line := range f.preEventsLines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return nil, err
		}
	}
	if _, err := w.WriteString(f.formatLine + "\n"); err != nil {
		return nil, err
	}

	next := 0
	for _, line := range f.eventLines {
		var out string
		if line != nil {
			out = *line
		} else {
			out = f.buildDialogueLine(
				f.dialogues[next],
				escapeASSText(entries[next].Text),
			)
			next++
		}
		if _, err := w.WriteString(out + "\n"); err != nil {
			return nil, err
		}
	}

	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *ASSFile) Write(path string) error {
	data, err := f.Compose(f.Subtitle().Entries)
	if err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (f *ASSFile) buildDialogueLine(d assDialogue, text string) string {
	fields := make([]string, len(d.fields))
	copy(fields, d.fields)
	fields[f.textColumnIndex] = text

	return "Dialogue: " + strings.Join(fields, ",")
}
