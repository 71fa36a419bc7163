package types

import "time"

const (
	// RoleUser marks a turn typed by the user.
	RoleUser = "user"
	// RoleAssistant marks a turn produced by the model.
	RoleAssistant = "assistant"
)

const (
	// CategoryCasual is small talk that can be forgotten in bulk.
	CategoryCasual = "casual"
	// CategoryImportant is a turn the classifier flagged as carrying a durable fact.
	CategoryImportant = "important"
)

// Turn is one entry of the in-session conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
	// Model is the label of the model that produced an assistant turn, display only.
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the single persisted profile row for the configured user.
type Profile struct {
	UserID           string    `json:"user_id"`
	EducationSummary string    `json:"education_summary"`
	InterestsSummary string    `json:"interests_summary"`
	PrivacyNotes     string    `json:"privacy_notes"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsEmpty reports whether no profile field carries content.
func (p Profile) IsEmpty() bool {
	return p.EducationSummary == "" && p.InterestsSummary == "" && p.PrivacyNotes == ""
}

// ProfileField names a single profile column.
type ProfileField string

const (
	FieldEducation ProfileField = "education_summary"
	FieldInterests ProfileField = "interests_summary"
	FieldPrivacy   ProfileField = "privacy_notes"
)

// Value returns the current value of field f.
func (p Profile) Value(f ProfileField) string {
	switch f {
	case FieldEducation:
		return p.EducationSummary
	case FieldInterests:
		return p.InterestsSummary
	case FieldPrivacy:
		return p.PrivacyNotes
	default:
		return ""
	}
}

// HistoryRecord is one persisted question/answer pair.
type HistoryRecord struct {
	ID        int       `json:"id"`
	UserID    string    `json:"user_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Category  string    `json:"category"`
	Title     string    `json:"title,omitempty"`
	Model     string    `json:"model,omitempty"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// SimilarRecord is a history row returned by vector search.
type SimilarRecord struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Category   string    `json:"category"`
	Similarity float64   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}

// ClassifierDecision is the structured verdict about one utterance.
type ClassifierDecision struct {
	IsImportant   bool    `json:"is_important"`
	FactType      string  `json:"fact_type,omitempty"`
	ExtractedInfo *string `json:"extracted_info,omitempty"`
	LGPDRisk      bool    `json:"lgpd_risk,omitempty"`
	Title         string  `json:"title,omitempty"`
}

// Category maps the decision to a history category.
func (d ClassifierDecision) Category() string {
	if d.IsImportant {
		return CategoryImportant
	}
	return CategoryCasual
}

// Fact returns the extracted information, or "" when absent.
func (d ClassifierDecision) Fact() string {
	if d.ExtractedInfo == nil {
		return ""
	}
	return *d.ExtractedInfo
}

// ProfileField maps fact_type to the profile column it feeds.
func (d ClassifierDecision) ProfileField() (ProfileField, bool) {
	switch d.FactType {
	case "education":
		return FieldEducation, true
	case "interests":
		return FieldInterests, true
	case "privacy":
		return FieldPrivacy, true
	default:
		return "", false
	}
}

// Attachment is a file uploaded alongside a message.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}
