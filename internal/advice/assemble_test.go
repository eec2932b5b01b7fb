package advice

import (
	"testing"

	"smartclaim/internal/models"

	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	docs := []models.Document{
		{ID: "a", Name: "a.pdf", FullText: "--- Page 1 ---\nAAA\n\n"},
		{ID: "b", Name: "b.pdf", FullText: "--- Page 1 ---\nBBB\n\n"},
	}

	mode, ctx := Assemble(docs, "b")
	require.Equal(t, models.ModeSingle, mode)
	require.Equal(t, docs[1].FullText, ctx)

	mode, ctx = Assemble(docs, "")
	require.Equal(t, models.ModeMulti, mode)
	require.Equal(t,
		"\n--- Document: a.pdf ---\n--- Page 1 ---\nAAA\n\n"+
			"\n\n"+
			"\n--- Document: b.pdf ---\n--- Page 1 ---\nBBB\n\n",
		ctx)

	mode, ctx = Assemble(nil, "")
	require.Equal(t, models.ModeGeneral, mode)
	require.Empty(t, ctx)
}

func TestAssembleIgnoresStaleActiveID(t *testing.T) {
	mode, _ := Assemble([]models.Document{{ID: "a"}}, "gone")
	require.Equal(t, models.ModeMulti, mode)
}
