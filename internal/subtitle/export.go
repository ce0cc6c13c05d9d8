package subtitle

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var pairsHeader = []string{"No.", "From", "To", "Original Text", "Translated Text"}

// one row of the original/translated comparison table
type PairRow struct {
	Number     int
	From       string
	To         string
	Original   string
	Translated string
}

// pairs entries by position; newlines become spaces so each row stays on one line
func PairRows(original, translated []Entry) ([]PairRow, error) {
	if len(original) != len(translated) {
		return nil, fmt.Errorf(
			"entry count mismatch: %d original, %d translated",
			len(original),
			len(translated),
		)
	}

	rows := make([]PairRow, len(original))
	for i, e := range original {
		rows[i] = PairRow{
			Number:     i + 1,
			From:       FormatTimestamp(e.StartTime),
			To:         FormatTimestamp(e.EndTime),
			Original:   flattenText(e.Text),
			Translated: flattenText(translated[i].Text),
		}
	}
	return rows, nil
}

func flattenText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(text)
}

func WritePairs(w io.Writer, rows []PairRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(pairsHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.Number),
			r.From,
			r.To,
			r.Original,
			r.Translated,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WritePairsCSV(path string, rows []PairRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create pairs file: %w", err)
	}

	if err := WritePairs(f, rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write pairs file: %w", err)
	}
	return f.Close()
}
