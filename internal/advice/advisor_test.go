package advice

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartclaim/internal/metrics"
	"smartclaim/internal/models"
	"smartclaim/internal/util"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubInferrer struct {
	reply   string
	err     error
	prompts []string
	block   bool
}

func (s *stubInferrer) Infer(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func TestAskNormalizesReply(t *testing.T) {
	inf := &stubInferrer{reply: `{"status":"analysis","response":"可理賠","checklist":["a"],"suggested_questions":["q1","q2","q3"]}`}
	a := NewAdvisor(inf, NewPromptBuilder(0, 0), time.Second, nil)

	msg, err := a.Ask(context.Background(), models.ModeSingle, "--- Page 1 ---\n保單\n\n", "骨折有賠嗎？")
	require.NoError(t, err)
	require.Equal(t, "可理賠", msg.Text)
	require.Equal(t, []string{"a"}, msg.Guidance)
	require.Equal(t, []string{"q1", "q2", "q3"}, msg.SuggestedQuestions)
	require.NotEmpty(t, msg.ID)
	require.Len(t, inf.prompts, 1)
	require.Contains(t, inf.prompts[0], "保單")
}

func TestAskEmptyQueryNeverCallsInference(t *testing.T) {
	inf := &stubInferrer{}
	a := NewAdvisor(inf, NewPromptBuilder(0, 0), time.Second, nil)
	_, err := a.Ask(context.Background(), models.ModeGeneral, "", "   ")
	require.ErrorIs(t, err, util.ErrEmptyQuery)
	require.Empty(t, inf.prompts)
}

func TestAskInferenceFailureYieldsDefault(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	inf := &stubInferrer{err: errors.New("503 service unavailable")}
	a := NewAdvisor(inf, NewPromptBuilder(0, 0), time.Second, zap.New(core))

	before := testutil.ToFloat64(metrics.NormalizerFallbacksTotal.WithLabelValues("inference"))
	msg, err := a.Ask(context.Background(), models.ModeGeneral, "", "q")
	require.NoError(t, err)
	require.Equal(t, AnalysisFailed, msg.Text)
	require.Equal(t, models.StatusAnalysis, msg.Structured.Status)
	require.Empty(t, msg.Structured.Checklist)
	require.Equal(t, 1, logs.Len())
	require.Equal(t, before+1, testutil.ToFloat64(metrics.NormalizerFallbacksTotal.WithLabelValues("inference")))
}

func TestAskTimeoutYieldsDefault(t *testing.T) {
	inf := &stubInferrer{block: true}
	a := NewAdvisor(inf, NewPromptBuilder(0, 0), 20*time.Millisecond, nil)
	msg, err := a.Ask(context.Background(), models.ModeGeneral, "", "q")
	require.NoError(t, err)
	require.Equal(t, AnalysisFailed, msg.Text)
}

func TestAskMalformedReplyYieldsDefault(t *testing.T) {
	a := NewAdvisor(&stubInferrer{reply: "Sure! Here is my answer."}, NewPromptBuilder(0, 0), time.Second, nil)
	msg, err := a.Ask(context.Background(), models.ModeGeneral, "", "q")
	require.NoError(t, err)
	require.Equal(t, UnableToAnalyze, msg.Text)
	require.Empty(t, msg.SuggestedQuestions)
}

func TestAskWithoutInferrer(t *testing.T) {
	a := NewAdvisor(nil, NewPromptBuilder(0, 0), 0, nil)
	msg, err := a.Ask(context.Background(), models.ModeGeneral, "", "q")
	require.NoError(t, err)
	require.Equal(t, AnalysisFailed, msg.Text)
}

func TestSummarize(t *testing.T) {
	a := NewAdvisor(&stubInferrer{reply: `{"title":"醫療險"}`}, NewPromptBuilder(0, 0), time.Second, nil)
	require.Equal(t, "醫療險", a.Summarize(context.Background(), "text").Title)

	a = NewAdvisor(&stubInferrer{err: errors.New("boom")}, NewPromptBuilder(0, 0), time.Second, nil)
	require.Equal(t, UnavailableSummary(), a.Summarize(context.Background(), "text"))
}
