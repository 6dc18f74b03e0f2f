package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TrustGrade is the reliability label assigned to an article
type TrustGrade string

const (
	TrustHigh    TrustGrade = "high"
	TrustMedium  TrustGrade = "medium"
	TrustLow     TrustGrade = "low"
	TrustUnknown TrustGrade = "unknown"
)

// ParseTrustGrade maps English or Korean labels to a TrustGrade.
// Anything unrecognised becomes TrustUnknown.
func ParseTrustGrade(s string) TrustGrade {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "높음":
		return TrustHigh
	case "medium", "보통":
		return TrustMedium
	case "low", "낮음":
		return TrustLow
	default:
		return TrustUnknown
	}
}

// Valid reports whether g is one of the three graded labels.
func (g TrustGrade) Valid() bool {
	return g == TrustHigh || g == TrustMedium || g == TrustLow
}

// Translation holds a translated headline and summary
type Translation struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// NewsItem represents a collected, evaluated and translated article
type NewsItem struct {
	ID           string                 `json:"id"`
	Guid         string                 `json:"guid,omitempty"`
	Title        string                 `json:"title" validate:"required"`
	Link         string                 `json:"link" validate:"required,url"`
	FeedLink     string                 `json:"feed_link,omitempty"`
	Source       string                 `json:"source" validate:"required"`
	Category     string                 `json:"category"`
	SubCategory  string                 `json:"sub_category"`
	PublishedAt  time.Time              `json:"published_at"`
	Content      string                 `json:"content,omitempty"`
	Summary      string                 `json:"summary"`
	TrustGrade   TrustGrade             `json:"trust_grade" validate:"required,oneof=high medium low unknown"`
	TrustReason  string                 `json:"trust_reason,omitempty"`
	ImageURL     string                 `json:"image_url,omitempty"`
	Translations map[string]Translation `json:"translations,omitempty"`
	Language     string                 `json:"language"`
	FilePath     string                 `json:"file_path,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at,omitempty"`
}

var validate = validator.New()

// Validate checks the fields required at the API boundary
func (n *NewsItem) Validate() error {
	return validate.Struct(n)
}

// TitleIn returns the title in lang, falling back to the source title.
func (n *NewsItem) TitleIn(lang string) string {
	if t, ok := n.Translations[lang]; ok && t.Title != "" {
		return t.Title
	}
	return n.Title
}

// SummaryIn returns the summary in lang, falling back to the source summary.
func (n *NewsItem) SummaryIn(lang string) string {
	if t, ok := n.Translations[lang]; ok && t.Summary != "" {
		return t.Summary
	}
	return n.Summary
}

// EvaluatedArticle is the ad-hoc analysis result returned by /analyze
type EvaluatedArticle struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Source      string     `json:"source"`
	PublishedAt time.Time  `json:"published_at"`
	Summary     string     `json:"summary"`
	TrustGrade  TrustGrade `json:"trust_grade"`
	TrustReason string     `json:"trust_reason,omitempty"`
	Error       string     `json:"error,omitempty"`
}
