// Package pdftext turns the positioned text runs of a PDF text layer into
// page-ordered plain text.
package pdftext

import (
	"math"
	"strings"
)

// Fragment is one positioned run of text as reported by the PDF text layer.
// Y is the baseline; Height is the glyph height used as the line-break scale.
type Fragment struct {
	Text   string
	X      float64
	Y      float64
	Height float64
}

// Reconstruct joins fragments in the order given, breaking the line whenever
// the baseline moves by more than half a glyph height. Multi-column text and
// tables come out interleaved; this is a heuristic, not a layout engine.
func Reconstruct(frags []Fragment) string {
	if len(frags) == 0 {
		return ""
	}
	var b strings.Builder
	var lastY float64
	haveLast := false
	for _, f := range frags {
		if haveLast && math.Abs(f.Y-lastY) > f.Height*0.5 {
			b.WriteByte('\n')
		}
		b.WriteString(f.Text)
		b.WriteByte(' ')
		lastY = f.Y
		haveLast = true
	}
	return strings.TrimSpace(b.String())
}
