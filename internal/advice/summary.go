package advice

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"smartclaim/internal/models"
	"smartclaim/internal/util"
)

const (
	defaultSummaryTitle = "已上傳保單"
	defaultSummaryText  = "已完成保單內容解析。"
	unavailableSummary  = "系統已讀取內容，但 AI 分析暫時無法使用。"
)

var DocumentQuestions = []string{"理賠範圍有哪些？", "除外責任是什麼？", "如何申請理賠？"}

const generalWelcomeText = `👋 **您好！我是您的 SmartClaim AI 理賠顧問。**

我可以協助您解決保險相關的疑難雜症：

🔹 **一般諮詢 (專業顧問)**：
即使沒有保單，您也可以詢問保險法規、專有名詞解釋（如：既往症、除外責任）或理賠實務。

🔹 **跨保單總管**：
若您上傳了多份 PDF，我能在此模式下為您進行「綜合分析」，比較不同保單的理賠範圍。

**現在，請直接提問，或上傳您的保單吧！** 🚀`

// ParseSummary coerces the summary reply. Missing fields fall back to
// neutral defaults rather than failing the upload.
func ParseSummary(raw string) (models.Summary, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(strings.TrimSpace(raw))), &fields); err != nil || fields == nil {
		return UnavailableSummary(), fmt.Errorf("%w: summary", util.ErrMalformedResponse)
	}
	out := models.Summary{
		Title:              defaultSummaryTitle,
		Summary:            defaultSummaryText,
		Highlights:         []string{},
		SuggestedQuestions: append([]string{}, DocumentQuestions...),
	}
	if s, ok := stringField(fields, "title"); ok {
		out.Title = s
	}
	if s, ok := stringField(fields, "summary"); ok {
		out.Summary = s
	}
	if l, ok := listField(fields, "highlights"); ok {
		out.Highlights = l
	}
	if l, ok := listField(fields, "suggestedQuestions"); ok && len(l) > 0 {
		out.SuggestedQuestions = l
	} else if l, ok := listField(fields, "suggested_questions"); ok && len(l) > 0 {
		out.SuggestedQuestions = l
	}
	return out, nil
}

// UnavailableSummary is used when the summary call itself failed.
func UnavailableSummary() models.Summary {
	return models.Summary{
		Title:              defaultSummaryTitle,
		Summary:            unavailableSummary,
		Highlights:         []string{},
		SuggestedQuestions: append([]string{}, DocumentQuestions...),
	}
}

func WelcomeMessage(docID string, s models.Summary, now time.Time) models.Message {
	var b strings.Builder
	b.WriteString("✅ **保單載入完成！**\n\n")
	fmt.Fprintf(&b, "📋 **%s**\n%s\n\n", s.Title, s.Summary)
	b.WriteString("✨ **保障亮點**：\n")
	for i, h := range s.Highlights {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• " + h)
	}
	return models.Message{
		ID:        "welcome-" + docID,
		Role:      models.RoleModel,
		Text:      b.String(),
		CreatedAt: now,
	}
}

func GeneralWelcome(now time.Time) models.Message {
	return models.Message{ID: "welcome", Role: models.RoleModel, Text: generalWelcomeText, CreatedAt: now}
}
