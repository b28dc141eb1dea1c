// Package numfmt formats volumes and weights for display.
package numfmt

import (
	"strconv"
	"strings"
)

// Thousands formats v with comma grouping and at most one decimal.
// A zero decimal is dropped: 1500 is "1,500", 1500.5 is "1,500.5".
func Thousands(v float64) string {
	s := strings.TrimSuffix(strconv.FormatFloat(v, 'f', 1, 64), ".0")
	if s == "-0" {
		s = "0"
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// Weight formats a single weight with up to two decimals and no grouping.
func Weight(w float64) string {
	s := strings.TrimSuffix(strings.TrimRight(strconv.FormatFloat(w, 'f', 2, 64), "0"), ".")
	if s == "-0" {
		return "0"
	}
	return s
}
