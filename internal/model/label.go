package model

// Label is a short piece of text an owner attaches to a feedback item for
// triage ("Priority", "Duplicate", ...). Labels are created and deleted
// individually, never updated in place, and nothing enforces uniqueness of
// the text — the same label can appear twice if the owner adds it twice.
type Label struct {
	ID         string `json:"id"         db:"id"`
	FeedbackID string `json:"feedbackId" db:"feedback_id"`
	Label      string `json:"label"      db:"label"`
}
