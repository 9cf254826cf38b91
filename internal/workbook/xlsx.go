package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Open dispatches on the path: a directory is read as one CSV per sheet,
// .csv as a single sheet, anything else as an XLSX workbook.
func Open(path string) (*Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return OpenCSVDir(path)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		sheet, err := readCSVSheet(path)
		if err != nil {
			return nil, err
		}
		return &Workbook{Path: path, Sheets: []*Sheet{sheet}}, nil
	}
	return OpenXLSX(path)
}

func OpenXLSX(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	wb := &Workbook{Path: path}
	for _, name := range f.GetSheetList() {
		sheet, err := readXLSXSheet(f, name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

func readXLSXSheet(f *excelize.File, name string) (*Sheet, error) {
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	formatted, err := f.GetRows(name)
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{Name: name, Rows: make([][]Cell, 0, len(raw))}
	for r, row := range raw {
		cells := make([]Cell, 0, len(row))
		for c, v := range row {
			if v == "" {
				cells = append(cells, Empty())
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(name, axis)
			if err != nil {
				return nil, err
			}
			cells = append(cells, classifyXLSX(typ, v, formattedAt(formatted, r, c)))
		}
		sheet.Rows = append(sheet.Rows, cells)
	}
	return sheet, nil
}

func formattedAt(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

func classifyXLSX(typ excelize.CellType, raw, display string) Cell {
	switch typ {
	case excelize.CellTypeBool:
		return Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError, excelize.CellTypeDate:
		return Text(raw)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return Text(raw)
	}
	// A numeric cell rendered with a clock format is a date/time serial.
	if display != "" && display != raw && strings.Contains(display, ":") {
		if t, err := excelize.ExcelDateToTime(n, false); err == nil {
			c := Time(t)
			c.Number = n
			return c
		}
	}
	return Number(n)
}
