// Package memory implements the repository interfaces with plain maps behind
// a mutex. It exists for two reasons: fast, dependency-free tests, and a demo
// mode that runs without a database file.
//
// The implementation mirrors every observable behavior of the sqlite store —
// ordering, filters, pagination math, affected-row counts, cascade deletes —
// so the two are interchangeable behind repository.Store. Which one runs is
// selected via configuration, never by ambient package state.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/model"
	"github.com/feedbackpulse/feedback-pulse/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store is an in-memory repository.Store. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	users    map[string]model.User
	projects map[string]model.Project
	feedback map[string]model.Feedback
	labels   map[string]model.Label
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[string]model.User),
		projects: make(map[string]model.Project),
		feedback: make(map[string]model.Feedback),
		labels:   make(map[string]model.Label),
	}
}

// Close satisfies repository.Store; nothing to release.
func (s *Store) Close() error { return nil }

// --- users ---

func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return apperror.Conflict("email already registered")
		}
	}

	user.ID = xid.New().String()
	user.CreatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("User")
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("User")
}

func (s *Store) UpsertGitHubUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.users {
		if u.GitHubID == user.GitHubID {
			u.Name = user.Name
			u.Email = user.Email
			s.users[id] = u
			*user = u
			return nil
		}
	}

	user.ID = xid.New().String()
	user.CreatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

// --- projects ---

func (s *Store) CreateProject(_ context.Context, project *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Same referential rule the sqlite FK enforces: a project can't attach to
	// a user row that no longer exists (stale session between issue and use).
	if _, ok := s.users[project.OwnerID]; !ok {
		return apperror.Conflict("project owner does not exist")
	}

	project.ID = xid.New().String()
	project.CreatedAt = time.Now()
	project.FeedbackCount = 0
	s.projects[project.ID] = *project
	return nil
}

func (s *Store) GetProjectByKey(_ context.Context, key string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.projects {
		if p.ProjectKey == key {
			copied := p
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("Project")
}

func (s *Store) GetOwnedProject(_ context.Context, id, ownerID string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, apperror.NotFound("Project")
	}
	p.FeedbackCount = s.countFeedbackLocked(id, repository.FeedbackFilter{})
	return &p, nil
}

func (s *Store) ListProjectsByOwner(_ context.Context, ownerID string) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]model.Project, 0)
	for _, p := range s.projects {
		if p.OwnerID != ownerID {
			continue
		}
		p.FeedbackCount = s.countFeedbackLocked(p.ID, repository.FeedbackFilter{})
		projects = append(projects, p)
	}

	sortNewestFirst(projects, func(p model.Project) (time.Time, string) {
		return p.CreatedAt, p.ID
	})
	return projects, nil
}

func (s *Store) RenameOwnedProject(_ context.Context, id, ownerID, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok || p.OwnerID != ownerID {
		return 0, nil
	}
	p.Name = name
	s.projects[id] = p
	return 1, nil
}

func (s *Store) DeleteOwnedProject(_ context.Context, id, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok || p.OwnerID != ownerID {
		return 0, nil
	}
	delete(s.projects, p.ID)

	// Cascade: the project's feedback, then every label on that feedback.
	for fid, f := range s.feedback {
		if f.ProjectID != id {
			continue
		}
		delete(s.feedback, fid)
		for lid, l := range s.labels {
			if l.FeedbackID == fid {
				delete(s.labels, lid)
			}
		}
	}
	return 1, nil
}

// --- feedback ---

func (s *Store) CreateFeedback(_ context.Context, feedback *model.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Mirrors the sqlite FK on feedback.project_id.
	if _, ok := s.projects[feedback.ProjectID]; !ok {
		return apperror.Conflict("project does not exist")
	}

	feedback.ID = xid.New().String()
	feedback.CreatedAt = time.Now()
	if feedback.Labels == nil {
		feedback.Labels = []model.Label{}
	}
	stored := *feedback
	stored.Labels = nil // labels live in their own map
	s.feedback[feedback.ID] = stored
	return nil
}

func (s *Store) GetOwnedFeedback(_ context.Context, id, ownerID string) (*model.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.feedback[id]
	if !ok {
		return nil, apperror.NotFound("Feedback")
	}
	p, ok := s.projects[f.ProjectID]
	if !ok || p.OwnerID != ownerID {
		return nil, apperror.NotFound("Feedback")
	}
	f.Labels = []model.Label{}
	return &f, nil
}

func (s *Store) ListFeedbackByProject(_ context.Context, projectID string, filter repository.FeedbackFilter, opts repository.ListOptions) ([]model.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]model.Feedback, 0)
	for _, f := range s.feedback {
		if f.ProjectID != projectID {
			continue
		}
		if filter.Type != "" && f.Type != filter.Type {
			continue
		}
		matched = append(matched, f)
	}

	sortNewestFirst(matched, func(f model.Feedback) (time.Time, string) {
		return f.CreatedAt, f.ID
	})

	// LIMIT/OFFSET semantics, including the past-the-end case: an offset
	// beyond the result set yields an empty slice, not an error.
	if opts.Offset >= len(matched) {
		return []model.Feedback{}, nil
	}
	matched = matched[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}

	for i := range matched {
		matched[i].Labels = s.labelsForLocked(matched[i].ID)
	}
	return matched, nil
}

func (s *Store) CountFeedbackByProject(_ context.Context, projectID string, filter repository.FeedbackFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countFeedbackLocked(projectID, filter), nil
}

// --- labels ---

func (s *Store) CreateLabel(_ context.Context, label *model.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	label.ID = xid.New().String()
	s.labels[label.ID] = *label
	return nil
}

func (s *Store) DeleteOwnedLabel(_ context.Context, labelID, feedbackID, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.labels[labelID]
	if !ok || l.FeedbackID != feedbackID {
		return 0, nil
	}
	f, ok := s.feedback[feedbackID]
	if !ok {
		return 0, nil
	}
	p, ok := s.projects[f.ProjectID]
	if !ok || p.OwnerID != ownerID {
		return 0, nil
	}

	delete(s.labels, labelID)
	return 1, nil
}

// --- helpers ---

func (s *Store) countFeedbackLocked(projectID string, filter repository.FeedbackFilter) int {
	count := 0
	for _, f := range s.feedback {
		if f.ProjectID != projectID {
			continue
		}
		if filter.Type != "" && f.Type != filter.Type {
			continue
		}
		count++
	}
	return count
}

func (s *Store) labelsForLocked(feedbackID string) []model.Label {
	labels := make([]model.Label, 0)
	for _, l := range s.labels {
		if l.FeedbackID == feedbackID {
			labels = append(labels, l)
		}
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].ID < labels[j].ID })
	return labels
}

// sortNewestFirst orders by creation time descending, breaking timestamp ties
// by ID descending — xids are time-ordered, so this matches insertion order
// reversed, same as the sqlite ORDER BY.
func sortNewestFirst[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi > idj
	})
}
