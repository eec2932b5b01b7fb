package pdftext

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"smartclaim/internal/util"

	"github.com/ledongthuc/pdf"
)

// PageSource is the text layer of one opened PDF. Pages are 1-based.
type PageSource interface {
	NumPage() int
	Fragments(page int) ([]Fragment, error)
}

type pdfSource struct {
	r *pdf.Reader
}

// OpenBytes opens PDF bytes with ledongthuc/pdf. Encrypted files and files
// the parser rejects fail with util.ErrExtraction.
func OpenBytes(data []byte) (src PageSource, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			src = nil
			err = fmt.Errorf("%w: open: %v", util.ErrExtraction, rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", util.ErrExtraction, err)
	}
	return &pdfSource{r: r}, nil
}

// NumPage is 0 when the page tree cannot be resolved.
func (s *pdfSource) NumPage() (n int) {
	defer func() {
		if rec := recover(); rec != nil {
			n = 0
		}
	}()
	return s.r.NumPage()
}

// Fragments reads the page content stream. The library reports one pdf.Text
// per glyph, so adjacent glyphs sharing a baseline are merged back into runs.
func (s *pdfSource) Fragments(page int) (frags []Fragment, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			frags = nil
			err = fmt.Errorf("%w: page %d: %v", util.ErrExtraction, page, rec)
		}
	}()
	p := s.r.Page(page)
	if p.V.IsNull() {
		return nil, nil
	}
	return mergeGlyphs(p.Content().Text), nil
}

func mergeGlyphs(glyphs []pdf.Text) []Fragment {
	out := make([]Fragment, 0, len(glyphs)/4+1)
	var cur strings.Builder
	var head pdf.Text
	var endX float64
	open := false

	flush := func() {
		if open && strings.TrimSpace(cur.String()) != "" {
			out = append(out, Fragment{
				Text:   cur.String(),
				X:      head.X,
				Y:      head.Y,
				Height: glyphHeight(head),
			})
		}
		cur.Reset()
		open = false
	}

	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}
		if open {
			size := glyphHeight(head)
			sameLine := math.Abs(g.Y-head.Y) <= size*0.1
			gap := g.X - endX
			if !sameLine || gap > size*0.2 || gap < -size {
				flush()
			}
		}
		if !open {
			head = g
			open = true
		}
		cur.WriteString(g.S)
		endX = g.X + g.W
	}
	flush()
	return out
}

func glyphHeight(t pdf.Text) float64 {
	if t.FontSize <= 0 {
		return 1
	}
	return t.FontSize
}
