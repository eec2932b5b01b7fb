package models

import "time"

type Mode string

const (
	ModeSingle  Mode = "single"
	ModeMulti   Mode = "multi"
	ModeGeneral Mode = "general"
)

// DeriveMode is the only way a Mode comes into existence; it is never stored.
func DeriveMode(activeID string, docCount int) Mode {
	if activeID != "" {
		return ModeSingle
	}
	if docCount > 0 {
		return ModeMulti
	}
	return ModeGeneral
}

type Page struct {
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
}

type Document struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Pages              []Page    `json:"pages"`
	FullText           string    `json:"full_text"`
	FileHandle         string    `json:"file_handle,omitempty"`
	ChatHistory        []Message `json:"chat_history"`
	SuggestedQuestions []string  `json:"suggested_questions,omitempty"`
	Summary            string    `json:"summary,omitempty"`
	UploadedAt         time.Time `json:"uploaded_at"`
}

// Clone deep-copies the slices so callers can hand documents across goroutines.
func (d Document) Clone() Document {
	out := d
	out.Pages = append([]Page(nil), d.Pages...)
	out.ChatHistory = append([]Message(nil), d.ChatHistory...)
	if d.SuggestedQuestions != nil {
		out.SuggestedQuestions = append([]string{}, d.SuggestedQuestions...)
	}
	if out.ChatHistory == nil {
		out.ChatHistory = []Message{}
	}
	return out
}

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Status string

const (
	StatusAnalysis      Status = "analysis"
	StatusClarification Status = "clarification"
)

type StructuredResult struct {
	Status             Status   `json:"status"`
	Response           string   `json:"response"`
	Checklist          []string `json:"checklist"`
	KeyPoints          []string `json:"key_points,omitempty"`
	Warning            string   `json:"warning,omitempty"`
	OriginalTerms      string   `json:"original_terms,omitempty"`
	FollowUp           string   `json:"follow_up,omitempty"`
	SuggestedQuestions []string `json:"suggested_questions"`
}

type Message struct {
	ID                 string            `json:"id"`
	Role               Role              `json:"role"`
	Text               string            `json:"text"`
	Guidance           []string          `json:"guidance,omitempty"`
	Structured         *StructuredResult `json:"structured_data,omitempty"`
	SuggestedQuestions []string          `json:"suggested_questions,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

type Summary struct {
	Title              string   `json:"title"`
	Summary            string   `json:"summary"`
	Highlights         []string `json:"highlights"`
	SuggestedQuestions []string `json:"suggested_questions"`
}

type PolicyKind string

const (
	PolicyMain  PolicyKind = "main"
	PolicyRider PolicyKind = "rider"
)

// CustomerPolicy is an operator-entered policy record for an assisted customer.
// Riders point at their main policy through ParentPolicyID.
type CustomerPolicy struct {
	ID               string     `json:"id"`
	Kind             PolicyKind `json:"policy_type"`
	ParentPolicyID   string     `json:"parent_policy_id,omitempty"`
	PolicyName       string     `json:"policy_name"`
	PolicyNumber     string     `json:"policy_number,omitempty"`
	InsuranceCompany string     `json:"insurance_company,omitempty"`
	CoverageType     string     `json:"coverage_type,omitempty"`
	Currency         string     `json:"currency"`
	PaymentFrequency string     `json:"payment_frequency"`
	Premium          float64    `json:"premium"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          time.Time  `json:"end_date"`
	Notes            string     `json:"notes,omitempty"`
	DocumentURL      string     `json:"document_url,omitempty"`
}

type Customer struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Phone    string           `json:"phone,omitempty"`
	Policies []CustomerPolicy `json:"policies"`
}

type PolicyStatus string

const (
	PolicyActive       PolicyStatus = "active"
	PolicyExpiringSoon PolicyStatus = "expiring_soon"
	PolicyExpired      PolicyStatus = "expired"
)

const expiringWindow = 30 * 24 * time.Hour

func PolicyStatusAt(p CustomerPolicy, now time.Time) PolicyStatus {
	if p.EndDate.IsZero() {
		return PolicyActive
	}
	if now.After(p.EndDate) {
		return PolicyExpired
	}
	if p.EndDate.Sub(now) <= expiringWindow {
		return PolicyExpiringSoon
	}
	return PolicyActive
}
