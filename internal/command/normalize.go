package command

import (
	"regexp"
	"strconv"
	"strings"
)

var multiSpaceRE = regexp.MustCompile(`\s+`)

// normaliseInput lowercases and collapses separators. Colons and dots
// survive so "08:30" and "8.30" reach the time parser intact.
func normaliseInput(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	raw = strings.ReplaceAll(raw, "：", ":")
	var b strings.Builder
	lastSpace := false
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ':' || r == '.' || r == '?' {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '-' || r == '_' || r == '/' || r == '\'' || r == ',' {
			if !lastSpace {
				b.WriteByte(' ')
			}
			lastSpace = true
		}
	}
	return strings.TrimSpace(multiSpaceRE.ReplaceAllString(b.String(), " "))
}

func tokenise(normalised string) []string {
	if strings.TrimSpace(normalised) == "" {
		return nil
	}
	return strings.Fields(normalised)
}

func parseQuantityToken(token string) *Quantity {
	token = strings.TrimSpace(strings.ToLower(token))
	if token == "" || strings.ContainsAny(token, ":.") {
		return nil
	}
	if n, err := strconv.Atoi(token); err == nil && n >= 0 {
		return &Quantity{Raw: token, N: n, Unit: "count"}
	}
	for _, unit := range []struct {
		name     string
		suffixes []string
	}{
		{"days", []string{"days", "day", "d"}},
		{"hours", []string{"hours", "hour", "hr", "h"}},
		{"minutes", []string{"mins", "min", "m"}},
	} {
		for _, suffix := range unit.suffixes {
			if !strings.HasSuffix(token, suffix) {
				continue
			}
			if v, err := strconv.Atoi(strings.TrimSuffix(token, suffix)); err == nil && v >= 0 {
				return &Quantity{Raw: token, N: v, Unit: unit.name}
			}
		}
	}
	return nil
}
