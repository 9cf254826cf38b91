package workbook

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func OpenCSVDir(dir string) (*Workbook, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	wb := &Workbook{Path: dir}
	for _, n := range names {
		sheet, err := readCSVSheet(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

func readCSVSheet(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sheet := &Sheet{Name: name, Rows: make([][]Cell, 0, len(records))}
	for i, rec := range records {
		cells := make([]Cell, 0, len(rec))
		for j, v := range rec {
			if i == 0 && j == 0 {
				v = strings.TrimPrefix(v, "\ufeff")
			}
			cells = append(cells, Text(v))
		}
		sheet.Rows = append(sheet.Rows, cells)
	}
	return sheet, nil
}
