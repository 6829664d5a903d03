package model

import "time"

// Project is a site or app that collects feedback. Each project belongs to
// exactly one user and carries a public project key.
//
// PROJECT KEY vs ID:
// The ID is an internal identifier used in owner API URLs (always checked
// against the session's user). The ProjectKey is the public, unguessable
// handle embedded in third-party pages by the widget — safe to expose, but
// useless for anything except submitting feedback. It is generated once at
// creation and never changes.
type Project struct {
	ID         string    `json:"id"         db:"id"`
	Name       string    `json:"name"       db:"name"`
	ProjectKey string    `json:"projectKey" db:"project_key"`
	OwnerID    string    `json:"-"          db:"owner_id"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`

	// FeedbackCount is computed on read (never maintained at write time).
	// Populated by list/get queries that join against the feedback table.
	FeedbackCount int `json:"feedbackCount" db:"-"`
}
