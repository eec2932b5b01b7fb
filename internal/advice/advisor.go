package advice

import (
	"context"
	"errors"
	"time"

	"smartclaim/internal/metrics"
	"smartclaim/internal/models"
	"smartclaim/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Inferrer is the inference service: one prompt in, JSON-shaped text out.
type Inferrer interface {
	Infer(ctx context.Context, prompt string) (string, error)
}

// SummaryInferrer is optionally implemented by inferrers that route the
// summary prompt differently from questions.
type SummaryInferrer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

type Advisor struct {
	infer   Inferrer
	prompts PromptBuilder
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
	newID   func() string
}

func NewAdvisor(infer Inferrer, prompts PromptBuilder, timeout time.Duration, log *zap.Logger) *Advisor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Advisor{
		infer:   infer,
		prompts: prompts,
		timeout: timeout,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Ask returns the model message for query. The only error is
// util.ErrEmptyQuery; inference and parse failures become a default answer.
func (a *Advisor) Ask(ctx context.Context, mode models.Mode, contextText, query string) (models.Message, error) {
	prompt, err := a.prompts.Build(mode, contextText, query)
	if err != nil {
		return models.Message{}, err
	}
	raw, err := a.call(ctx, prompt, false)
	if err != nil {
		metrics.NormalizerFallbacksTotal.WithLabelValues("inference").Inc()
		a.log.Warn("inference failed, using default answer", zap.String("mode", string(mode)), zap.Error(err))
		return NewModelMessage(a.newID(), DefaultResult(AnalysisFailed), a.now()), nil
	}
	res, perr := ParseResult(raw)
	if perr != nil {
		metrics.NormalizerFallbacksTotal.WithLabelValues("malformed").Inc()
		a.log.Warn("model reply was not a JSON object", zap.String("mode", string(mode)), zap.Error(perr))
	}
	return NewModelMessage(a.newID(), res, a.now()), nil
}

// Summarize never fails; a failed call yields UnavailableSummary.
func (a *Advisor) Summarize(ctx context.Context, fullText string) models.Summary {
	raw, err := a.call(ctx, a.prompts.BuildSummary(fullText), true)
	if err != nil {
		a.log.Warn("summary inference failed", zap.Error(err))
		return UnavailableSummary()
	}
	s, err := ParseSummary(raw)
	if err != nil {
		a.log.Warn("summary reply was not a JSON object", zap.Error(err))
	}
	return s
}

func (a *Advisor) call(ctx context.Context, prompt string, summary bool) (string, error) {
	if a.infer == nil {
		return "", util.ErrNoProvider
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	var (
		raw string
		err error
	)
	if si, ok := a.infer.(SummaryInferrer); ok && summary {
		raw, err = si.Summarize(ctx, prompt)
	} else {
		raw, err = a.infer.Infer(ctx, prompt)
	}
	if err != nil {
		if !errors.Is(err, util.ErrInference) {
			err = errors.Join(util.ErrInference, err)
		}
		return "", err
	}
	return raw, nil
}
