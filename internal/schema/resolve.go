// Package schema locates sheets, header rows and columns in loosely
// structured workbooks and coerces cells into typed values.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/appengine-ltd/dailysim/internal/workbook"
)

var (
	ErrSheetNotFound  = errors.New("sheet not found")
	ErrHeaderNotFound = errors.New("header row not found")
	ErrColumnNotFound = errors.New("column not found")
)

// HeaderScanRows bounds how many non-empty rows DetectHeaderRow inspects.
const HeaderScanRows = 10

// ResolveSheet tries every candidate as an exact, case-sensitive name first
// and only then falls back to a case-insensitive substring match.
func ResolveSheet(wb *workbook.Workbook, candidates []string) (*workbook.Sheet, error) {
	if wb == nil {
		return nil, fmt.Errorf("%w: no workbook", ErrSheetNotFound)
	}
	for _, name := range candidates {
		for _, s := range wb.Sheets {
			if s.Name == name {
				return s, nil
			}
		}
	}
	for _, name := range candidates {
		n := strings.ToLower(name)
		if n == "" {
			continue
		}
		for _, s := range wb.Sheets {
			if strings.Contains(strings.ToLower(s.Name), n) {
				return s, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: tried %s; existing: %s", ErrSheetNotFound,
		strings.Join(candidates, ", "), strings.Join(wb.SheetNames(), ", "))
}

// DetectHeaderRow returns the first of the leading non-empty rows in which
// every keyword is a substring of some normalized cell.
func DetectHeaderRow(sheet *workbook.Sheet, keywords []string) (int, error) {
	if sheet == nil {
		return -1, ErrHeaderNotFound
	}
	want := make([]string, 0, len(keywords))
	for _, k := range keywords {
		want = append(want, NormalizeHeader(k))
	}

	scanned := 0
	for r := 0; r < len(sheet.Rows) && scanned < HeaderScanRows; r++ {
		if sheet.RowEmpty(r) {
			continue
		}
		scanned++

		cells := make([]string, 0, len(sheet.Rows[r]))
		for _, c := range sheet.Rows[r] {
			cells = append(cells, NormalizeHeader(c.String()))
		}
		if rowHasAll(cells, want) {
			return r, nil
		}
	}
	return -1, fmt.Errorf("%w: sheet %q needs %s", ErrHeaderNotFound, sheet.Name, strings.Join(keywords, ", "))
}

func rowHasAll(cells, keywords []string) bool {
	for _, k := range keywords {
		found := false
		for _, c := range cells {
			if strings.Contains(c, k) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
