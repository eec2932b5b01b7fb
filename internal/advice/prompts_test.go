package advice

import (
	"strings"
	"testing"
	"unicode/utf8"

	"smartclaim/internal/models"
	"smartclaim/internal/util"

	"github.com/stretchr/testify/require"
)

func TestBuildRejectsBlankQuery(t *testing.T) {
	b := NewPromptBuilder(0, 0)
	_, err := b.Build(models.ModeGeneral, "", " \n\t")
	require.ErrorIs(t, err, util.ErrEmptyQuery)
}

func TestBuildSelectsModeInstruction(t *testing.T) {
	b := NewPromptBuilder(0, 0)
	for _, mode := range []models.Mode{models.ModeSingle, models.ModeMulti, models.ModeGeneral} {
		p, err := b.Build(mode, "ctx", "骨折有賠嗎？")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(p, ModeInstruction(mode)), "mode %s", mode)
		require.Contains(t, p, `使用者問題: "骨折有賠嗎？"`)
		require.Contains(t, p, `"status": "clarification"`)
		require.Contains(t, p, `"status": "analysis"`)
		require.Contains(t, p, "suggested_questions")
		require.Contains(t, p, "**粗體**")
	}
	require.NotEqual(t, ModeInstruction(models.ModeSingle), ModeInstruction(models.ModeMulti))
	require.NotEqual(t, ModeInstruction(models.ModeMulti), ModeInstruction(models.ModeGeneral))
}

func TestBuildEmptyContextUsesMarker(t *testing.T) {
	p, err := NewPromptBuilder(0, 0).Build(models.ModeGeneral, "", "什麼是除外責任？")
	require.NoError(t, err)
	require.Contains(t, p, noContextMarker)
	require.NotContains(t, p, contextHeader)
}

func TestBuildTruncatesContextByRunes(t *testing.T) {
	b := NewPromptBuilder(10, 0)
	ctx := strings.Repeat("保", 8) + strings.Repeat("險", 8)
	p, err := b.Build(models.ModeSingle, ctx, "q")
	require.NoError(t, err)
	require.Contains(t, p, contextHeader+"\n"+strings.Repeat("保", 8)+"險險 "+truncationNotice)
	require.NotContains(t, p, "險險險")
	require.True(t, utf8.ValidString(p))
}

func TestBuildSummaryClipsText(t *testing.T) {
	b := NewPromptBuilder(0, 5)
	p := b.BuildSummary("abcdefghij")
	require.True(t, strings.HasSuffix(p, "abcde"))
	require.Contains(t, p, `"suggestedQuestions"`)
}
