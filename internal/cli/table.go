package cli

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mgpai22/anuvad/internal/subtitle"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// widest a text column may grow before wrapping
const textColumnWidth = 48

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, wrap map[int]bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		cc := table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		}
		if wrap[i] {
			cc.WidthMax = textColumnWidth
		}
		columnConfigs = append(columnConfigs, cc)
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// original vs translated, first limit rows
func renderPairsTable(rows []subtitle.PairRow, limit int) string {
	rows = headRows(rows, limit)
	body := make([][]string, 0, len(rows))
	for _, r := range rows {
		body = append(body, []string{
			strconv.Itoa(r.Number), r.From, r.To, r.Original, r.Translated,
		})
	}
	return renderTable(
		[]string{"#", "From", "To", "Original", "Translated"},
		body,
		[]columnAlignment{alignRight},
		map[int]bool{3: true, 4: true},
	)
}

// parsed input only, used by --dry-run
func renderEntriesTable(entries []subtitle.Entry, limit int) string {
	if limit >= 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	body := make([][]string, 0, len(entries))
	for i, e := range entries {
		body = append(body, []string{
			strconv.Itoa(i + 1),
			subtitle.FormatTimestamp(e.StartTime),
			subtitle.FormatTimestamp(e.EndTime),
			strings.ReplaceAll(e.Text, "\n", " "),
		})
	}
	return renderTable(
		[]string{"#", "From", "To", "Text"},
		body,
		[]columnAlignment{alignRight},
		map[int]bool{3: true},
	)
}

func headRows(rows []subtitle.PairRow, limit int) []subtitle.PairRow {
	if limit >= 0 && limit < len(rows) {
		return rows[:limit]
	}
	return rows
}
