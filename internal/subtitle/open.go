package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// longest single line accepted by the parsers
const maxLineSize = 1024 * 1024

// current scanner line without its CR; bytes that are not valid UTF-8 are
// dropped so they never reach the prompt or the tag masks
func scanLine(scanner *bufio.Scanner) string {
	return strings.ToValidUTF8(strings.TrimSuffix(scanner.Text(), "\r"), "")
}

// parsed subtitle file that preserves format specific metadata
type File interface {
	Format() Format
	Subtitle() *Subtitle
	SetText(index int, text string) error
	// renders the file with the given entries in place of the parsed ones
	Compose(entries []Entry) ([]byte, error)
	Write(path string) error
}

func Open(path string) (File, error) {
	format := FormatFromPath(path)
	if format == "" {
		return nil, fmt.Errorf(
			"unsupported subtitle format: %s",
			filepath.Ext(path),
		)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", format, err)
	}
	defer func() {
		_ = f.Close()
	}()

	return Parse(f, format)
}

func Parse(r io.Reader, format Format) (File, error) {
	switch format {
	case FormatSRT:
		return parseSRT(r)
	case FormatVTT:
		return parseVTT(r)
	case FormatASS:
		return parseASS(r)
	case FormatTTML:
		return parseTTML(r)
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", format)
	}
}

// Compose renders entries with the layout of f, checking the count first.
func Compose(f File, entries []Entry) ([]byte, error) {
	if want := len(f.Subtitle().Entries); want != len(entries) {
		return nil, fmt.Errorf(
			"entry count mismatch: file has %d, got %d",
			want,
			len(entries),
		)
	}
	return f.Compose(entries)
}
