package schema

import (
	"math"
	"strconv"
	"strings"

	"github.com/appengine-ltd/dailysim/internal/workbook"
)

// CellInt never fails: numbers truncate, text is parsed as an integer and
// then as a float, everything else is 0.
func CellInt(c workbook.Cell) int {
	switch c.Kind {
	case workbook.CellNumber, workbook.CellBool:
		return truncInt(c.Number)
	case workbook.CellText:
		s := strings.TrimSpace(c.Text)
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return truncInt(v)
		}
	}
	return 0
}

func truncInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0
	}
	return int(v)
}

func CellString(c workbook.Cell) string {
	return c.String()
}

// CellTime coerces a cell to canonical "HH:MM" or "". Numeric values in
// [0, 1.5) are fractions of a day; larger numbers are read like text, so
// 10.15 becomes 10:15.
func CellTime(c workbook.Cell) string {
	switch c.Kind {
	case workbook.CellTime:
		return c.Time.Format("15:04")
	case workbook.CellNumber:
		if c.Number >= 0 && c.Number < 1.5 {
			return FractionOfDay(c.Number)
		}
		return NormalizeTime(c.Text)
	case workbook.CellText:
		return NormalizeTime(c.Text)
	}
	return ""
}
