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
	UnableToAnalyze = "目前無法分析您的問題。"
	AnalysisFailed  = "分析過程中發生錯誤，請稍後再試。"
)

// DefaultResult is what a query yields when the model gave nothing usable.
func DefaultResult(response string) models.StructuredResult {
	if response == "" {
		response = UnableToAnalyze
	}
	return models.StructuredResult{
		Status:             models.StatusAnalysis,
		Response:           response,
		Checklist:          []string{},
		SuggestedQuestions: []string{},
	}
}

// Normalize coerces raw model text into a StructuredResult. It never fails:
// anything that is not a JSON object yields DefaultResult.
func Normalize(raw string) models.StructuredResult {
	res, _ := ParseResult(raw)
	return res
}

// ParseResult is Normalize with the reason for a fallback exposed. The
// result is always usable; err wraps util.ErrMalformedResponse when the
// text was not a JSON object.
func ParseResult(raw string) (models.StructuredResult, error) {
	body := stripCodeFence(strings.TrimSpace(raw))
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil || fields == nil {
		return DefaultResult(""), fmt.Errorf("%w: %s", util.ErrMalformedResponse, util.Preview(raw, 60))
	}

	out := DefaultResult("")
	if s, ok := stringField(fields, "status"); ok {
		switch models.Status(strings.ToLower(s)) {
		case models.StatusClarification:
			out.Status = models.StatusClarification
		case models.StatusAnalysis:
			out.Status = models.StatusAnalysis
		}
	}
	if s, ok := stringField(fields, "response"); ok {
		out.Response = s
	}
	if l, ok := listField(fields, "checklist"); ok {
		out.Checklist = l
	}
	if l, ok := listField(fields, "key_points"); ok {
		out.KeyPoints = l
	}
	out.Warning, _ = stringField(fields, "warning")
	out.OriginalTerms, _ = stringField(fields, "original_terms")
	out.FollowUp, _ = stringField(fields, "follow_up")

	if l, ok := listField(fields, "suggested_questions"); ok {
		out.SuggestedQuestions = l
	} else if l, ok := listField(fields, "suggestedQuestions"); ok {
		out.SuggestedQuestions = l
	}
	return out, nil
}

// NewModelMessage derives the chat message shown for a result.
func NewModelMessage(id string, res models.StructuredResult, now time.Time) models.Message {
	r := res
	return models.Message{
		ID:                 id,
		Role:               models.RoleModel,
		Text:               res.Response,
		Guidance:           append([]string{}, res.Checklist...),
		Structured:         &r,
		SuggestedQuestions: append([]string{}, res.SuggestedQuestions...),
		CreatedAt:          now,
	}
}

// stringField returns a trimmed non-empty string; any other JSON type or a
// blank string counts as absent.
func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// listField accepts a JSON array and keeps its non-blank string items.
// Numbers are kept in their JSON form; other item types are dropped.
func listField(fields map[string]json.RawMessage, key string) ([]string, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		if err := json.Unmarshal(it, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(it, &n); err == nil {
			out = append(out, n.String())
		}
	}
	return out, true
}

func stripCodeFence(s string) string {
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
