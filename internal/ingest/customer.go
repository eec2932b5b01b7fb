package ingest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"smartclaim/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

func currencySymbol(code string) string {
	switch strings.ToUpper(code) {
	case "TWD":
		return "NT$"
	case "USD":
		return "US$"
	case "CNY":
		return "CN¥"
	default:
		return "HK$"
	}
}

func frequencyLabel(f string) string {
	switch strings.ToLower(f) {
	case "annual":
		return "年繳"
	case "semiannual":
		return "半年繳"
	case "quarterly":
		return "季繳"
	default:
		return "月繳"
	}
}

func statusLabel(s models.PolicyStatus) string {
	switch s {
	case models.PolicyExpiringSoon:
		return "即將到期"
	case models.PolicyExpired:
		return "已到期"
	default:
		return "生效中"
	}
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return "未提供"
	}
	return s
}

func formatAmount(v float64) string {
	if v == math.Trunc(v) {
		return amountPrinter.Sprintf("%d", int64(v))
	}
	return amountPrinter.Sprintf("%.2f", v)
}

func formatPremium(p models.CustomerPolicy) string {
	return fmt.Sprintf("%s %s / %s", currencySymbol(p.Currency), formatAmount(p.Premium), frequencyLabel(p.PaymentFrequency))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "未提供"
	}
	return t.Format("2006/1/2")
}

// PolicyRecordDocuments renders an assisted customer's main policies, each
// with its riders, as single-page documents with ids "policy_<id>".
func PolicyRecordDocuments(c models.Customer, now time.Time) []models.Document {
	riders := make(map[string][]models.CustomerPolicy)
	for _, p := range c.Policies {
		if p.Kind == models.PolicyRider && p.ParentPolicyID != "" {
			riders[p.ParentPolicyID] = append(riders[p.ParentPolicyID], p)
		}
	}

	out := make([]models.Document, 0, len(c.Policies))
	for _, p := range c.Policies {
		if p.Kind != models.PolicyMain {
			continue
		}
		rs := riders[p.ID]
		content := renderPolicy(p, rs, now)
		name := p.PolicyName
		if len(rs) > 0 {
			name = fmt.Sprintf("%s (含 %d 份附約)", p.PolicyName, len(rs))
		}
		out = append(out, models.Document{
			ID:          "policy_" + p.ID,
			Name:        name,
			Pages:       []models.Page{{PageNumber: 1, Content: content}},
			FullText:    content,
			FileHandle:  p.DocumentURL,
			ChatHistory: []models.Message{},
			Summary:     fmt.Sprintf("%s - %s - %s", p.PolicyName, orMissing(p.InsuranceCompany), strings.Replace(formatPremium(p), " / ", "/", 1)),
			UploadedAt:  now,
		})
	}
	return out
}

func renderPolicy(p models.CustomerPolicy, riders []models.CustomerPolicy, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "保單名稱: %s\n", p.PolicyName)
	fmt.Fprintf(&b, "保單號碼: %s\n", orMissing(p.PolicyNumber))
	fmt.Fprintf(&b, "保險公司: %s\n", orMissing(p.InsuranceCompany))
	fmt.Fprintf(&b, "保障類型: %s\n", orMissing(p.CoverageType))
	fmt.Fprintf(&b, "保費: %s\n", formatPremium(p))
	fmt.Fprintf(&b, "保障期間: %s ~ %s\n", formatDate(p.StartDate), formatDate(p.EndDate))
	fmt.Fprintf(&b, "狀態: %s\n", statusLabel(models.PolicyStatusAt(p, now)))
	if p.Notes != "" {
		fmt.Fprintf(&b, "\n備註: %s\n", p.Notes)
	}
	if len(riders) > 0 {
		fmt.Fprintf(&b, "\n--- 附約 (%d 份) ---\n\n", len(riders))
		for i, r := range riders {
			fmt.Fprintf(&b, "附約 %d: %s\n", i+1, r.PolicyName)
			fmt.Fprintf(&b, "  - 保單號碼: %s\n", orMissing(r.PolicyNumber))
			fmt.Fprintf(&b, "  - 保障類型: %s\n", orMissing(r.CoverageType))
			fmt.Fprintf(&b, "  - 保費: %s\n", formatPremium(r))
			fmt.Fprintf(&b, "  - 保障期間: %s ~ %s\n\n", formatDate(r.StartDate), formatDate(r.EndDate))
		}
	}
	return b.String()
}

// CustomerWelcome is the model message shown after a customer's policies
// were loaded.
func CustomerWelcome(c models.Customer, docs []models.Document, now time.Time) models.Message {
	withRiders := ""
	for _, d := range docs {
		if strings.Contains(d.Name, "附約") {
			withRiders = "(含附約)"
			break
		}
	}
	text := fmt.Sprintf("**已載入客戶保單資料**\n\n**客戶**: %s\n**電話**: %s\n\n已為您載入 %d 份主約保單%s,每份保單都有獨立的聊天室。\n\n請選擇左側的保單開始諮詢!",
		c.Name, orMissing(c.Phone), len(docs), withRiders)
	return models.Message{
		ID:        fmt.Sprintf("customer_welcome_%d", now.UnixMilli()),
		Role:      models.RoleModel,
		Text:      text,
		CreatedAt: now,
	}
}
