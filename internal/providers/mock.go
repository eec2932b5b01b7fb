package providers

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// MockProvider returns deterministic JSON so the whole pipeline runs
// without credentials.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (m *MockProvider) Configured() bool { return true }

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}
	var payload any
	switch strings.ToLower(req.Operation) {
	case "summary":
		payload = map[string]any{
			"title":              "模擬保單",
			"summary":            "這是離線模式產生的保單摘要。",
			"highlights":         []string{"住院醫療", "手術給付", "意外傷害"},
			"suggestedQuestions": []string{"住院怎麼賠？", "手術賠多少？", "哪些不賠？"},
		}
	default:
		payload = map[string]any{
			"status":              "analysis",
			"response":            "（模擬回覆）已收到您的問題，內容長度 **" + strconv.Itoa(len([]rune(req.Prompt))) + " 字**。",
			"checklist":           []string{"確認保單條款", "準備理賠文件"},
			"key_points":          []string{"模擬重點: 請以保單條款為準"},
			"suggested_questions": []string{"理賠範圍？", "除外責任？", "申請流程？"},
		}
	}
	b, _ := json.Marshal(payload)
	return GenerateResponse{Text: string(b)}, info, nil
}
