package advice

import (
	"fmt"
	"strings"

	"smartclaim/internal/models"
	"smartclaim/internal/util"
)

const (
	DefaultContextBudget = 50000
	DefaultSummaryBudget = 15000
)

const singleInstruction = `你是一位專業的保險理賠助手 (SmartClaim AI)。
使用者已上傳一份特定的保單文件 (PDF)。
請**完全依據**該上傳文件的內容來回答使用者的問題。
若文件中沒有相關資訊，請如實告知。`

const multiInstruction = `你是一位專業的保險理賠總管 (SmartClaim AI)。
使用者已上傳多份保單文件。提供的 Context 包含所有文件的內容，並以 "--- Document: 檔名 ---" 標註來源文件。
請綜合分析這些文件來回答問題。
例如，如果使用者問「哪張保單賠比較多」，請進行比較。
請在回答中明確指出資訊來源於哪一份保單。`

const generalInstruction = `你是一位擁有豐富保險知識的專業顧問 (SmartClaim AI)。
目前使用者**尚未上傳任何保單文件**。
請基於你在台灣保險法規、常見理賠實務、專有名詞解釋方面的專業知識來回答使用者的問題。
回答時請說明這是一般性的保險知識，實際理賠仍需視個別保單條款而定。
若遇到需要具體條款才能判斷的問題（如：賠多少錢），請提醒使用者上傳保單以獲得精確分析。`

const (
	contextHeader    = "[參考文件內容 (Context)]:"
	truncationNotice = "(為確保效能，內容可能經截斷)"
	noContextMarker  = "[無特定參考文件，請依據一般專業知識回答]"
)

const responseContract = `請使用**繁體中文 (Traditional Chinese)** 進行邏輯判斷並回答：

**判斷邏輯步驟**：
1. **檢查資訊充足性**：
   - 若需要計算金額但缺少必要變數 -> 路徑 A (追問)。
   - 若只是問定義或一般知識 -> 路徑 B (分析)。
   - 若在多保單模式下無法確定問題針對哪一張保單 -> 路徑 A (追問)。
2. **決策路徑**：
   - **路徑 A (資訊不足，需要追問)**：將 status 設為 "clarification"。
   - **路徑 B (資訊充足，進行分析)**：將 status 設為 "analysis"。

**JSON 回覆格式要求**：
請只回傳一個合法的 JSON 物件，不要包含 Markdown 的 ` + "```json" + ` 標記。

若為 **路徑 A (需要追問)**：
{
  "status": "clarification",
  "response": "一段文字，解釋需要哪些額外資訊。",
  "follow_up": "一句簡短、明確的問句",
  "checklist": [],
  "key_points": [],
  "suggested_questions": ["問題1", "問題2", "問題3"]
}

若為 **路徑 B (進行分析)**：
{
  "status": "analysis",
  "response": "一段清晰的分析結論。",
  "checklist": ["建議步驟1", "建議步驟2"],
  "key_points": ["重點1", "重點2 (如: 骨折險: **5萬元**)"],
  "warning": "除外責任或注意事項",
  "original_terms": "引用來源文字 (若為一般知識模式則免填)",
  "suggested_questions": ["問題1", "問題2", "問題3"]
}

**其他規則**：
- 在 response 中，請將**金額**與**關鍵條件**使用 **粗體** 語法 (**內容**) 標示。
- 無論哪一條路徑，都必須提供 suggested_questions：恰好 3 個與本次問答相關的後續問題，每個問題嚴格限制在 12 個中文字以內。`

const summaryTemplate = `請閱讀以下保險保單的文字內容，並進行快速分析。
請回傳一個 JSON 物件 (不要 Markdown)，包含以下欄位：
1. "title": 判斷出的保險公司與保單名稱。
2. "summary": 用 50 字以內簡介這張保單的主要功能。
3. "highlights": 列出 3 個此保單的保障亮點。
4. "suggestedQuestions": 根據此保單內容，提出 3 個使用者可能會問的具體問題，每個問題嚴格限制在 12 個中文字以內。

保單內容片段：
%s`

// PromptBuilder renders the exact text handed to the inference service.
// Budgets are counted in runes.
type PromptBuilder struct {
	ContextBudget int
	SummaryBudget int
}

func NewPromptBuilder(contextBudget, summaryBudget int) PromptBuilder {
	if contextBudget <= 0 {
		contextBudget = DefaultContextBudget
	}
	if summaryBudget <= 0 {
		summaryBudget = DefaultSummaryBudget
	}
	return PromptBuilder{ContextBudget: contextBudget, SummaryBudget: summaryBudget}
}

func ModeInstruction(mode models.Mode) string {
	switch mode {
	case models.ModeSingle:
		return singleInstruction
	case models.ModeMulti:
		return multiInstruction
	default:
		return generalInstruction
	}
}

// Build fails only on a blank query.
func (b PromptBuilder) Build(mode models.Mode, contextText, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", util.ErrEmptyQuery
	}
	var sb strings.Builder
	sb.WriteString(ModeInstruction(mode))
	sb.WriteString("\n\n使用者問題: \"")
	sb.WriteString(query)
	sb.WriteString("\"\n\n")
	sb.WriteString(b.frameContext(contextText))
	sb.WriteString("\n\n")
	sb.WriteString(responseContract)
	sb.WriteString("\n")
	return sb.String(), nil
}

func (b PromptBuilder) frameContext(contextText string) string {
	if strings.TrimSpace(contextText) == "" {
		return noContextMarker
	}
	budget := b.ContextBudget
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	clipped, _ := util.TruncateRunes(contextText, budget)
	return contextHeader + "\n" + clipped + " " + truncationNotice
}

func (b PromptBuilder) BuildSummary(fullText string) string {
	budget := b.SummaryBudget
	if budget <= 0 {
		budget = DefaultSummaryBudget
	}
	clipped, _ := util.TruncateRunes(fullText, budget)
	return fmt.Sprintf(summaryTemplate, clipped)
}
