package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/xuri/excelize/v2"
)

// Spreadsheets render as one block per sheet: a "Sheet: name" line, then one
// tab-separated line per non-empty row.

func xlsxText(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		writeSheet(&b, sheet, rows)
	}
	return b.String(), nil
}

func xlsText(data []byte) (string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xls: %w", err)
	}

	var b strings.Builder
	for i := range wb.GetNumberSheets() {
		sheet, err := wb.GetSheet(i)
		if err != nil {
			return "", fmt.Errorf("read sheet %d: %w", i, err)
		}
		if sheet == nil {
			continue
		}
		var rows [][]string
		for _, row := range sheet.GetRows() {
			rows = append(rows, xlsRowValues(row.GetCols()))
		}
		writeSheet(&b, sheet.GetName(), rows)
	}
	return b.String(), nil
}

func writeSheet(b *strings.Builder, name string, rows [][]string) {
	var body strings.Builder
	for _, row := range rows {
		line := strings.TrimRight(strings.Join(row, "\t"), "\t ")
		if line == "" {
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if body.Len() == 0 {
		return
	}
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	b.WriteString("Sheet: ")
	b.WriteString(name)
	b.WriteByte('\n')
	b.WriteString(body.String())
}

func xlsRowValues(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}
