package util

import (
	"strings"
	"unicode"
)

// Preview collapses whitespace and clips s for log lines and report rows.
func Preview(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 120
	}
	s = SanitizeText(s)
	s = strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
	out, cut := TruncateRunes(s, maxRunes)
	if cut {
		return strings.TrimSpace(out) + "..."
	}
	return out
}
