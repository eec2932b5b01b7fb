package providers

import (
	"context"
	"errors"
	"testing"

	"smartclaim/internal/config"
	"smartclaim/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedProvider struct {
	name       string
	configured bool
	errs       []error
	reply      string
	calls      int
}

func (s *scriptedProvider) Configured() bool { return s.configured }

func (s *scriptedProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return GenerateResponse{}, ProviderInfo{Name: s.name}, err
	}
	return GenerateResponse{Text: s.reply}, ProviderInfo{Name: s.name}, nil
}

func named(name string, p LLMProvider) NamedLLMProvider {
	return NamedLLMProvider{Ref: ProviderRef{Raw: name, Name: name}, Provider: p}
}

func TestPreferredOrderPutsMockLast(t *testing.T) {
	names := []string{"mock", "openai", "mock", "groq"}
	got := preferredOrder(len(names), func(i int) string { return names[i] })
	assert.Equal(t, []int{1, 3, 0, 2}, got)
	assert.Nil(t, preferredOrder(0, nil))
}

func TestManagerRetriesTransientErrors(t *testing.T) {
	p := &scriptedProvider{name: "openai", configured: true, errs: []error{errors.New("503 service unavailable")}, reply: `{"response":"ok"}`}
	m := NewManagerWith([]NamedLLMProvider{named("openai", p)}, 0, 1, zap.NewNop())

	out, err := m.Infer(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"response":"ok"}`, out)
	assert.Equal(t, 2, p.calls)
}

func TestManagerFallsThroughOnQuota(t *testing.T) {
	first := &scriptedProvider{name: "openai", configured: true, errs: []error{errors.New("insufficient_quota")}}
	second := &scriptedProvider{name: "groq", configured: true, reply: `{"response":"from groq"}`}
	m := NewManagerWith([]NamedLLMProvider{named("openai", first), named("groq", second)}, 0, 1, zap.NewNop())

	out, err := m.Infer(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"response":"from groq"}`, out)
	assert.Equal(t, 1, first.calls, "quota errors are not retried")
	assert.Equal(t, 1, second.calls)
}

func TestManagerSkipsUnconfigured(t *testing.T) {
	p := &scriptedProvider{name: "openai", configured: false}
	m := NewManagerWith([]NamedLLMProvider{named("openai", p)}, 0, 1, zap.NewNop())

	assert.False(t, m.Configured())
	_, err := m.Infer(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrInference)
	assert.ErrorIs(t, err, util.ErrNoProvider)
	assert.Zero(t, p.calls)
}

func TestManagerWrapsLastError(t *testing.T) {
	p := &scriptedProvider{name: "openai", configured: true, errs: []error{errors.New("401 invalid api key")}}
	m := NewManagerWith([]NamedLLMProvider{named("openai", p)}, 0, 1, zap.NewNop())

	_, err := m.Infer(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrInference)
	assert.ErrorIs(t, err, util.ErrPermanent)
}

func TestManagerDefaultsToMock(t *testing.T) {
	m := NewManagerWith(nil, 0, 1, nil)
	require.Equal(t, 1, m.LLMCount())
	assert.True(t, m.Configured())

	out, err := m.Summarize(context.Background(), "policy text")
	require.NoError(t, err)
	assert.Contains(t, out, "suggestedQuestions")
}

func TestNewManagerRejectsUnknownProvider(t *testing.T) {
	_, err := NewManager(configWithProviders("mock|carrier-pigeon"), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestNewManagerRejectsMalformedList(t *testing.T) {
	_, err := NewManager(configWithProviders("openai:"), zap.NewNop())
	require.Error(t, err)

	m, err := NewManager(configWithProviders(""), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, m.LLMCount())
	assert.True(t, m.Configured())
}

func configWithProviders(list string) config.Config {
	cfg := config.Load()
	cfg.LLMProviders = list
	return cfg
}
