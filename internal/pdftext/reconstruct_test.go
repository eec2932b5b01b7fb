package pdftext

import (
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/require"
)

func TestReconstructEmpty(t *testing.T) {
	require.Equal(t, "", Reconstruct(nil))
}

func TestReconstructBreaksOnBaselineJump(t *testing.T) {
	frags := []Fragment{
		{Text: "第一條", Y: 700, Height: 12},
		{Text: "保險範圍", Y: 703, Height: 12},
		{Text: "第二條", Y: 680, Height: 12},
		{Text: "除外責任", Y: 680, Height: 12},
	}
	require.Equal(t, "第一條 保險範圍 \n第二條 除外責任", Reconstruct(frags))
}

func TestReconstructThresholdIsStrict(t *testing.T) {
	exact := []Fragment{{Text: "a", Y: 10, Height: 4}, {Text: "b", Y: 12, Height: 4}}
	require.Equal(t, "a b", Reconstruct(exact))
	over := []Fragment{{Text: "a", Y: 10, Height: 4}, {Text: "b", Y: 12.01, Height: 4}}
	require.Equal(t, "a \nb", Reconstruct(over))
}

func TestReconstructKeepsEveryFragmentInOrder(t *testing.T) {
	frags := []Fragment{
		{Text: "Sum", Y: 100, Height: 10},
		{Text: "insured", Y: 40, Height: 10},
		{Text: "NT$", Y: 500, Height: 10},
		{Text: "1,000,000", Y: 500, Height: 10},
		{Text: "premium", Y: 499, Height: 10},
	}
	out := Reconstruct(frags)
	var visible strings.Builder
	for _, r := range out {
		if r != ' ' && r != '\n' {
			visible.WriteRune(r)
		}
	}
	require.Equal(t, "SuminsuredNT$1,000,000premium", visible.String())
	require.Equal(t, 2, strings.Count(out, "\n"))
}

func TestMergeGlyphsBuildsRuns(t *testing.T) {
	glyphs := []pdf.Text{
		{FontSize: 10, X: 10, Y: 700, W: 5, S: "保"},
		{FontSize: 10, X: 15, Y: 700, W: 5, S: "單"},
		{FontSize: 10, X: 20, Y: 700, W: 3, S: " "},
		{FontSize: 10, X: 23, Y: 700, W: 5, S: "A"},
		{FontSize: 10, X: 60, Y: 700, W: 5, S: "B"},
		{FontSize: 10, X: 10, Y: 680, W: 5, S: "C"},
		{FontSize: 10, X: 15, Y: 680, W: 5, S: "\n"},
	}
	got := mergeGlyphs(glyphs)
	require.Len(t, got, 4)
	require.Equal(t, "保單", got[0].Text)
	require.Equal(t, 10.0, got[0].X)
	require.Equal(t, 10.0, got[0].Height)
	require.Equal(t, "A", got[1].Text)
	require.Equal(t, "B", got[2].Text)
	require.Equal(t, "C", got[3].Text)
	require.Equal(t, 680.0, got[3].Y)
}
