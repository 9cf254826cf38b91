// Package workbook holds the in-memory tabular model the importer reads from.
// Loaders for XLSX files and CSV directories produce the same shape.
package workbook

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellBool
	CellTime
)

// Cell keeps the source type so coercion can tell a numeric 0.5 (half a day)
// apart from the text "0.5".
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Time   time.Time
}

func Empty() Cell { return Cell{Kind: CellEmpty} }

func Text(s string) Cell {
	if s == "" {
		return Empty()
	}
	return Cell{Kind: CellText, Text: s}
}

func Number(v float64) Cell {
	return Cell{Kind: CellNumber, Number: v, Text: strconv.FormatFloat(v, 'f', -1, 64)}
}

func Bool(v bool) Cell {
	c := Cell{Kind: CellBool, Text: "false"}
	if v {
		c.Number = 1
		c.Text = "true"
	}
	return c
}

func Time(t time.Time) Cell {
	return Cell{Kind: CellTime, Time: t, Text: t.Format("15:04:05")}
}

func (c Cell) IsBlank() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	default:
		return false
	}
}

func (c Cell) String() string {
	if c.Kind == CellEmpty {
		return ""
	}
	return strings.TrimSpace(c.Text)
}

type Sheet struct {
	Name string
	Rows [][]Cell
}

func (s *Sheet) Cell(row, col int) Cell {
	if s == nil || row < 0 || row >= len(s.Rows) {
		return Empty()
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return Empty()
	}
	return r[col]
}

// Width is the widest row; ragged rows read as empty past their end.
func (s *Sheet) Width() int {
	if s == nil {
		return 0
	}
	w := 0
	for _, r := range s.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

func (s *Sheet) RowEmpty(row int) bool {
	if s == nil || row < 0 || row >= len(s.Rows) {
		return true
	}
	for _, c := range s.Rows[row] {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

type Workbook struct {
	Path   string
	Sheets []*Sheet
}

func New(sheets ...*Sheet) *Workbook {
	return &Workbook{Sheets: sheets}
}

func (w *Workbook) SheetNames() []string {
	if w == nil {
		return nil
	}
	out := make([]string, 0, len(w.Sheets))
	for _, s := range w.Sheets {
		out = append(out, s.Name)
	}
	return out
}

// FromValues builds a sheet from plain Go values. nil and "" become empty
// cells, integers and floats become numbers, time.Time becomes a time cell.
func FromValues(name string, rows ...[]any) *Sheet {
	s := &Sheet{Name: name, Rows: make([][]Cell, 0, len(rows))}
	for _, row := range rows {
		cells := make([]Cell, 0, len(row))
		for _, v := range row {
			cells = append(cells, cellOf(v))
		}
		s.Rows = append(s.Rows, cells)
	}
	return s
}

func cellOf(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Empty()
	case Cell:
		return x
	case string:
		return Text(x)
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case bool:
		return Bool(x)
	case time.Time:
		return Time(x)
	default:
		return Text(fmt.Sprint(x))
	}
}
