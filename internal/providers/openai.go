package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// ChatProvider talks to any OpenAI-compatible chat completions API.
type ChatProvider struct {
	name    string
	keyName string
	apiKey  string
	model   string
	client  *openai.Client
}

func NewOpenAIProvider(keyName string) *ChatProvider {
	model := strings.TrimSpace(os.Getenv("SMARTCLAIM_OPENAI_MODEL"))
	if model == "" {
		model = openai.GPT4oMini
	}
	return newChatProvider("openai", keyName, resolveKey("OPENAI", keyName, "OPENAI_API_KEY"), model, os.Getenv("SMARTCLAIM_OPENAI_BASE_URL"))
}

// NewGroqProvider uses Groq's OpenAI-compatible endpoint.
func NewGroqProvider(keyName string) *ChatProvider {
	model := strings.TrimSpace(os.Getenv("SMARTCLAIM_GROQ_MODEL"))
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	return newChatProvider("groq", keyName, resolveKey("GROQ", keyName, "GROQ_API_KEY"), model, groqBaseURL)
}

func newChatProvider(name, keyName, apiKey, model, baseURL string) *ChatProvider {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &ChatProvider{
		name:    name,
		keyName: keyName,
		apiKey:  apiKey,
		model:   model,
		client:  openai.NewClientWithConfig(cfg),
	}
}

func (c *ChatProvider) Configured() bool { return c.apiKey != "" }

func (c *ChatProvider) info() ProviderInfo {
	return ProviderInfo{Name: c.name, Model: c.model, Key: c.keyName}
}

func (c *ChatProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if c.apiKey == "" {
		return GenerateResponse{}, c.info(), fmt.Errorf("%s key missing for alias %q", c.name, c.keyName)
	}
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	creq := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	}
	if req.JSON {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	resp, err := c.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return GenerateResponse{}, c.info(), fmt.Errorf("%s chat completion failed: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return GenerateResponse{}, c.info(), fmt.Errorf("%s returned empty choices", c.name)
	}
	return GenerateResponse{Text: resp.Choices[0].Message.Content}, c.info(), nil
}

// resolveKey prefers SMARTCLAIM_<VENDOR>_KEY_<ALIAS>, then the vendor default.
func resolveKey(vendor, alias, fallbackEnv string) string {
	if alias != "" {
		if v := os.Getenv("SMARTCLAIM_" + vendor + "_KEY_" + sanitizeEnvToken(alias)); v != "" {
			return v
		}
	}
	return os.Getenv(fallbackEnv)
}

func sanitizeEnvToken(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
