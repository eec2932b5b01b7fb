package advice

import (
	"testing"
	"time"

	"smartclaim/internal/models"
	"smartclaim/internal/util"

	"github.com/stretchr/testify/require"
)

func TestNormalizeNotJSON(t *testing.T) {
	got := Normalize("not json")
	require.Equal(t, models.StatusAnalysis, got.Status)
	require.Equal(t, UnableToAnalyze, got.Response)
	require.NotNil(t, got.Checklist)
	require.Empty(t, got.Checklist)
	require.Empty(t, got.SuggestedQuestions)
	require.Nil(t, got.KeyPoints)

	_, err := ParseResult("not json")
	require.ErrorIs(t, err, util.ErrMalformedResponse)
}

func TestNormalizeArrayIsMalformed(t *testing.T) {
	_, err := ParseResult(`["a"]`)
	require.ErrorIs(t, err, util.ErrMalformedResponse)
	_, err = ParseResult(`null`)
	require.ErrorIs(t, err, util.ErrMalformedResponse)
}

func TestNormalizeFullAnalysis(t *testing.T) {
	raw := "```json\n" + `{
		"status": "analysis",
		"response": "骨折可理賠 **5萬元**",
		"checklist": ["準備診斷書", "  ", "申請表"],
		"key_points": ["骨折險: **5萬元**"],
		"warning": "酒駕除外",
		"original_terms": "第十條",
		"suggested_questions": ["要住院嗎？", "多久給付？", "需要收據嗎？"]
	}` + "\n```"
	got, err := ParseResult(raw)
	require.NoError(t, err)
	require.Equal(t, models.StructuredResult{
		Status:             models.StatusAnalysis,
		Response:           "骨折可理賠 **5萬元**",
		Checklist:          []string{"準備診斷書", "申請表"},
		KeyPoints:          []string{"骨折險: **5萬元**"},
		Warning:            "酒駕除外",
		OriginalTerms:      "第十條",
		SuggestedQuestions: []string{"要住院嗎？", "多久給付？", "需要收據嗎？"},
	}, got)
}

func TestNormalizeClarification(t *testing.T) {
	got := Normalize(`{"status":"Clarification","response":"請問住院幾天？","follow_up":"住院幾天？","checklist":[],"key_points":[]}`)
	require.Equal(t, models.StatusClarification, got.Status)
	require.Equal(t, "住院幾天？", got.FollowUp)
	require.Empty(t, got.Checklist)
	require.NotNil(t, got.KeyPoints)
}

func TestNormalizeWrongTypesFallBack(t *testing.T) {
	got := Normalize(`{"status":3,"response":["x"],"checklist":"step","key_points":{},"warning":false,"follow_up":"  "}`)
	require.Equal(t, DefaultResult(""), got)
}

func TestNormalizeUnknownStatus(t *testing.T) {
	require.Equal(t, models.StatusAnalysis, Normalize(`{"status":"thinking"}`).Status)
}

func TestNormalizeSuggestionAliases(t *testing.T) {
	got := Normalize(`{"suggestedQuestions":["a","b","c"]}`)
	require.Equal(t, []string{"a", "b", "c"}, got.SuggestedQuestions)

	got = Normalize(`{"suggested_questions":["x"],"suggestedQuestions":["a","b","c"]}`)
	require.Equal(t, []string{"x"}, got.SuggestedQuestions)

	got = Normalize(`{"suggested_questions":"bad","suggestedQuestions":["a"]}`)
	require.Equal(t, []string{"a"}, got.SuggestedQuestions)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, raw := range []string{
		"not json",
		`{"status":"analysis","response":"ok","checklist":["a"],"suggestedQuestions":["q"]}`,
		`{"status":"clarification","follow_up":"?"}`,
	} {
		require.Equal(t, Normalize(raw), Normalize(raw))
	}
}

func TestNewModelMessage(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	res := Normalize(`{"response":"結論","checklist":["步驟"],"suggested_questions":["下一步？"]}`)
	msg := NewModelMessage("m1", res, now)
	require.Equal(t, models.RoleModel, msg.Role)
	require.Equal(t, "結論", msg.Text)
	require.Equal(t, []string{"步驟"}, msg.Guidance)
	require.Equal(t, []string{"下一步？"}, msg.SuggestedQuestions)
	require.NotNil(t, msg.Structured)
	require.Equal(t, res, *msg.Structured)
	require.Equal(t, now, msg.CreatedAt)
}
