// Package repository defines the storage interfaces the rest of the app
// programs against. Two implementations exist: sqlite (persistent) and
// memory (for tests and demo mode) — which one runs is a config decision,
// never ambient state.
//
// OWNERSHIP-SCOPED QUERIES:
// Every read or mutation of a project, feedback item, or label takes the
// owner's user ID and bakes it into the query predicate. There is deliberately
// no "fetch by ID, then compare owner" anywhere: a two-step check leaves a gap
// between the check and the mutation, and it forces the caller to distinguish
// "absent" from "not yours" — a distinction we refuse to expose. The scoped
// mutations return an affected-row count instead, so count 0 uniformly means
// "not found or not owned".
package repository

import (
	"context"

	"github.com/feedbackpulse/feedback-pulse/internal/model"
)

// ListOptions carries LIMIT/OFFSET pagination for feedback listings.
type ListOptions struct {
	Limit  int
	Offset int
}

// FeedbackFilter narrows feedback queries. The zero value matches everything.
// The same filter value must be passed to both the page query and the count
// query so the pagination summary is computed over the same set.
type FeedbackFilter struct {
	Type model.FeedbackType // empty = all types
}

// UserRepository manages user accounts.
type UserRepository interface {
	// CreateUser inserts a new user. Returns apperror.ErrConflict when the
	// email is already registered.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHubUser inserts or refreshes a user keyed by GitHub ID,
	// preserving the internal ID across logins.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
}

// ProjectRepository manages projects. All owner-facing methods are scoped by
// ownerID inside the query itself.
type ProjectRepository interface {
	// CreateProject inserts a project with its pre-generated key. Returns
	// apperror.ErrConflict when the owner row no longer exists (stale session).
	CreateProject(ctx context.Context, project *model.Project) error
	// GetProjectByKey resolves a public project key. Used by the ingestion
	// endpoint and the embed generator — the only unscoped project lookup.
	GetProjectByKey(ctx context.Context, key string) (*model.Project, error)
	// GetOwnedProject returns the project with its feedback count, or
	// ErrNotFound when absent or owned by someone else.
	GetOwnedProject(ctx context.Context, id, ownerID string) (*model.Project, error)
	// ListProjectsByOwner returns the owner's projects newest-first, each
	// annotated with its feedback count.
	ListProjectsByOwner(ctx context.Context, ownerID string) ([]model.Project, error)
	// RenameOwnedProject updates the name where both id and owner match.
	// Returns the number of rows affected (0 = not found or not owned).
	RenameOwnedProject(ctx context.Context, id, ownerID, name string) (int64, error)
	// DeleteOwnedProject deletes the project and cascades to its feedback and
	// their labels. Returns rows affected for the project row itself.
	DeleteOwnedProject(ctx context.Context, id, ownerID string) (int64, error)
}

// FeedbackRepository manages visitor submissions. Feedback rows are append-
// only; there is no update method on purpose.
type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, feedback *model.Feedback) error
	// GetOwnedFeedback walks the ownership chain (feedback → project → user)
	// inside the query. ErrNotFound covers both absence and foreign ownership.
	GetOwnedFeedback(ctx context.Context, id, ownerID string) (*model.Feedback, error)
	// ListFeedbackByProject returns a page of feedback newest-first with
	// labels populated. Callers verify project ownership separately first.
	ListFeedbackByProject(ctx context.Context, projectID string, filter FeedbackFilter, opts ListOptions) ([]model.Feedback, error)
	// CountFeedbackByProject counts rows matching the same filter. The count
	// and the page are independent reads; they may be momentarily inconsistent
	// under concurrent writes, which callers accept.
	CountFeedbackByProject(ctx context.Context, projectID string, filter FeedbackFilter) (int, error)
}

// LabelRepository manages owner-attached labels.
type LabelRepository interface {
	CreateLabel(ctx context.Context, label *model.Label) error
	// DeleteOwnedLabel deletes the label only when labelID, feedbackID, and
	// the ownership chain all match in one predicate. Returns rows affected.
	DeleteOwnedLabel(ctx context.Context, labelID, feedbackID, ownerID string) (int64, error)
}

// Store is the full storage surface the server wires against.
type Store interface {
	UserRepository
	ProjectRepository
	FeedbackRepository
	LabelRepository
	Close() error
}
