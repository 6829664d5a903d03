package model

import "time"

// FeedbackType classifies a submission. The three values are the only ones
// the ingestion endpoint accepts.
type FeedbackType string

const (
	TypeBug     FeedbackType = "BUG"
	TypeFeature FeedbackType = "FEATURE"
	TypeOther   FeedbackType = "OTHER"
)

// ValidFeedbackType reports whether t is one of the three accepted values.
func ValidFeedbackType(t FeedbackType) bool {
	switch t {
	case TypeBug, TypeFeature, TypeOther:
		return true
	}
	return false
}

// Feedback is a single visitor submission, created only through the public
// ingestion endpoint (or the demo seed path).
//
// A feedback row is immutable after creation except for two things: the
// nullable Sentiment column (reserved for a future analysis pass — nothing in
// this codebase writes it) and its set of labels, which are rows of their own.
//
// Email and UserAgent use empty-string zero values rather than pointers; the
// JSON omitempty keeps them out of responses when absent, and the sqlite layer
// maps empty ↔ NULL at the boundary.
type Feedback struct {
	ID        string       `json:"id"                  db:"id"`
	ProjectID string       `json:"projectId"           db:"project_id"`
	Type      FeedbackType `json:"type"                db:"type"`
	Message   string       `json:"message"             db:"message"`
	Email     string       `json:"email,omitempty"     db:"email"`
	UserAgent string       `json:"userAgent,omitempty" db:"user_agent"`
	Sentiment string       `json:"sentiment,omitempty" db:"sentiment"`
	CreatedAt time.Time    `json:"createdAt"           db:"created_at"`

	// Labels attached by the project owner. Populated by listing queries.
	Labels []Label `json:"labels"`
}
