package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

const MinutesPerDay = 1440

// NormalizeHeader trims, drops every whitespace rune (including the
// full-width U+3000 space) and lowercases.
func NormalizeHeader(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// NormalizeTime turns "H.MM", "H:MM" and "H:MM:SS" into "HH:MM". Anything
// that does not yield a valid time of day becomes "".
func NormalizeTime(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	raw = strings.NewReplacer(".", ":", "：", ":").Replace(raw)

	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return ""
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ""
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return ""
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// FractionOfDay renders a day fraction (0.5 = noon) as "HH:MM". Whole days
// wrap, so 1.25 reads as 06:00.
func FractionOfDay(v float64) string {
	seconds := math.Round(v * 86400)
	minutes := int(seconds/60) % MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseMinutes reads a canonical "HH:MM" into minutes since midnight.
func ParseMinutes(hhmm string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// SortMinutes is ParseMinutes with unparsable times ordered last.
func SortMinutes(hhmm string) int {
	if m, ok := ParseMinutes(hhmm); ok {
		return m
	}
	return math.MaxInt
}
