package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderTable renders a rounded table. Columns whose cells are all numeric
// are right-aligned automatically.
func renderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	numeric := make([]bool, len(headers))
	for i := range numeric {
		numeric[i] = len(rows) > 0
	}
	for _, row := range rows {
		cells := make(table.Row, len(headers))
		for i := range headers {
			var value string
			if i < len(row) {
				value = row[i]
			}
			cells[i] = value
			if _, err := strconv.Atoi(value); err != nil {
				numeric[i] = false
			}
		}
		tw.AppendRow(cells)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i, isNumeric := range numeric {
		align := text.AlignLeft
		if isNumeric {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
