package schema

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/appengine-ltd/dailysim/internal/workbook"
)

type header struct {
	key string
	col int
}

// HeaderMap indexes normalized header text to column. The first column
// wins when two headers normalize to the same key.
type HeaderMap struct {
	index   map[string]int
	ordered []header
}

func BuildHeaderMap(sheet *workbook.Sheet, headerRow int) *HeaderMap {
	m := &HeaderMap{index: make(map[string]int)}
	if sheet == nil || headerRow < 0 || headerRow >= len(sheet.Rows) {
		return m
	}
	for c, cell := range sheet.Rows[headerRow] {
		key := NormalizeHeader(cell.String())
		if key == "" {
			continue
		}
		if _, dup := m.index[key]; dup {
			continue
		}
		m.index[key] = c
		m.ordered = append(m.ordered, header{key: key, col: c})
	}
	return m
}

func (m *HeaderMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ordered)
}

// Keys returns normalized headers in column order.
func (m *HeaderMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.ordered))
	for _, h := range m.ordered {
		out = append(out, h.key)
	}
	return out
}

func (m *HeaderMap) Find(name string) (int, bool) {
	if m == nil {
		return -1, false
	}
	c, ok := m.index[NormalizeHeader(name)]
	if !ok {
		return -1, false
	}
	return c, true
}

// FindContains returns the leftmost column whose header contains sub.
func (m *HeaderMap) FindContains(sub string) (int, bool) {
	if m == nil {
		return -1, false
	}
	key := NormalizeHeader(sub)
	if key == "" {
		return -1, false
	}
	for _, h := range m.ordered {
		if strings.Contains(h.key, key) {
			return h.col, true
		}
	}
	return -1, false
}

// FindFuzzy matches a header within an edit distance. maxDistance <= 0
// picks a limit from the name length.
func (m *HeaderMap) FindFuzzy(name string, maxDistance int) (int, bool) {
	if m == nil {
		return -1, false
	}
	key := NormalizeHeader(name)
	if key == "" {
		return -1, false
	}
	if maxDistance <= 0 {
		maxDistance = levenshteinLimit(len([]rune(key)))
	}
	best, bestDist := -1, maxDistance+1
	for _, h := range m.ordered {
		// Very short headers match almost anything at distance 1.
		if len([]rune(h.key)) < 3 {
			continue
		}
		d := levenshtein.ComputeDistance(key, h.key)
		if d < bestDist {
			best, bestDist = h.col, d
		}
	}
	if best < 0 {
		return -1, false
	}
	return best, true
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

type MatchMode int

const (
	MatchExact MatchMode = iota
	MatchContains
	MatchFuzzy
)

type Candidate struct {
	Name string
	Mode MatchMode
}

func Exact(name string) Candidate    { return Candidate{Name: name, Mode: MatchExact} }
func Contains(name string) Candidate { return Candidate{Name: name, Mode: MatchContains} }
func Fuzzy(name string) Candidate    { return Candidate{Name: name, Mode: MatchFuzzy} }

// Lookup walks candidates in order and returns the first column found.
func (m *HeaderMap) Lookup(candidates ...Candidate) (int, bool) {
	for _, c := range candidates {
		var (
			col int
			ok  bool
		)
		switch c.Mode {
		case MatchExact:
			col, ok = m.Find(c.Name)
		case MatchContains:
			col, ok = m.FindContains(c.Name)
		case MatchFuzzy:
			col, ok = m.FindFuzzy(c.Name, 0)
		}
		if ok {
			return col, true
		}
	}
	return -1, false
}
