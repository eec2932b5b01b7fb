package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartclaim/internal/config"
	"smartclaim/internal/metrics"
	"smartclaim/internal/util"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

// Manager is the inference boundary: it tries the configured providers in
// preferred order, rate limits calls and retries rate/transient failures.
type Manager struct {
	llmProviders []NamedLLMProvider
	limiter      *rate.Limiter
	maxRetries   uint64
	log          *zap.Logger
}

func NewManager(cfg config.Config, log *zap.Logger) (*Manager, error) {
	refs, err := ParseProviderList(cfg.LLMProviders)
	if err != nil {
		return nil, err
	}
	m := &Manager{log: log}
	for _, ref := range refs {
		p, err := buildProvider(ref)
		if err != nil {
			return nil, err
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: p})
	}
	return m.init(cfg.ProviderRPS, cfg.ProviderBurst), nil
}

// NewManagerWith wires explicit providers; used by tests and the CLI.
func NewManagerWith(providers []NamedLLMProvider, rps, burst int, log *zap.Logger) *Manager {
	m := &Manager{llmProviders: providers, log: log}
	return m.init(rps, burst)
}

func (m *Manager) init(rps, burst int) *Manager {
	if m.log == nil {
		m.log = zap.NewNop()
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	m.limiter = rate.NewLimiter(limit, burst)
	m.maxRetries = 2
	if len(m.llmProviders) == 0 {
		m.llmProviders = []NamedLLMProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider()}}
	}
	return m
}

func (m *Manager) LLMCount() int {
	return len(m.llmProviders)
}

// Configured reports whether at least one provider can be called.
func (m *Manager) Configured() bool {
	for _, p := range m.llmProviders {
		if p.Provider.Configured() {
			return true
		}
	}
	return false
}

func (m *Manager) PreferredLLMOrder() []int {
	return preferredOrder(len(m.llmProviders), func(i int) string { return strings.ToLower(m.llmProviders[i].Ref.Name) })
}

// preferredOrder puts real providers first and mock last.
func preferredOrder(n int, nameAt func(i int) string) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

func (m *Manager) FindLLMProviderByName(name string) (LLMProvider, ProviderRef, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return nil, ProviderRef{}, false
	}
	for i := range m.llmProviders {
		if strings.ToLower(m.llmProviders[i].Ref.Name) == target {
			return m.llmProviders[i].Provider, m.llmProviders[i].Ref, true
		}
	}
	return nil, ProviderRef{}, false
}

// Infer sends one prompt and expects a JSON object back.
func (m *Manager) Infer(ctx context.Context, prompt string) (string, error) {
	resp, _, err := m.Generate(ctx, GenerateRequest{Operation: "ask", Prompt: prompt, JSON: true})
	return resp.Text, err
}

// Summarize is Infer for the document summary prompt.
func (m *Manager) Summarize(ctx context.Context, prompt string) (string, error) {
	resp, _, err := m.Generate(ctx, GenerateRequest{Operation: "summary", Prompt: prompt, JSON: true})
	return resp.Text, err
}

// Generate walks the providers in preferred order. Quota, permanent and
// context errors move on to the next provider; rate and transient errors
// are retried with backoff first. The returned error wraps util.ErrInference.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	var lastErr error
	tried := 0
	for _, idx := range m.PreferredLLMOrder() {
		np := m.llmProviders[idx]
		if !np.Provider.Configured() {
			continue
		}
		tried++
		resp, info, err := m.generateWithRetry(ctx, np, req)
		if err == nil {
			return resp, info, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		m.log.Warn("provider failed, trying next",
			zap.String("provider", np.Ref.Raw),
			zap.String("error_type", string(ClassifyError(err))),
			zap.Error(err),
		)
	}
	if tried == 0 {
		return GenerateResponse{}, ProviderInfo{}, fmt.Errorf("%w: %w", util.ErrInference, util.ErrNoProvider)
	}
	return GenerateResponse{}, ProviderInfo{}, fmt.Errorf("%w: %w: %v", util.ErrInference, Sentinel(ClassifyError(lastErr)), lastErr)
}

func (m *Manager) generateWithRetry(ctx context.Context, np NamedLLMProvider, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	var (
		resp GenerateResponse
		info ProviderInfo
	)
	operation := func() error {
		if err := m.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		start := time.Now()
		r, i, err := np.Provider.Generate(ctx, req)
		metrics.InferenceDuration.WithLabelValues(np.Ref.Name).Observe(time.Since(start).Seconds())
		if err != nil {
			kind := ClassifyError(err)
			metrics.InferenceRequestsTotal.WithLabelValues(np.Ref.Name, string(kind)).Inc()
			if retryable(kind) && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		metrics.InferenceRequestsTotal.WithLabelValues(np.Ref.Name, "ok").Inc()
		resp, info = r, i
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, m.maxRetries), ctx))
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		return GenerateResponse{}, info, err
	}
	return resp, info, nil
}

func buildProvider(ref ProviderRef) (LLMProvider, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias), nil
	case "gemini":
		return NewGeminiProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
