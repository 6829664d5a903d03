package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/model"
	"github.com/feedbackpulse/feedback-pulse/internal/repository"
)

// The memory store must behave like the sqlite one wherever a service or
// handler could observe the difference. These tests pin down the behaviors
// the HTTP layer depends on: conflict classification, tenant isolation,
// count-based write results, and cascade on delete.

func seedUser(t *testing.T, s *Store, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: "Test User"}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%q) error = %v", email, err)
	}
	return user
}

func seedProject(t *testing.T, s *Store, ownerID, key string) *model.Project {
	t.Helper()
	project := &model.Project{Name: "Site", ProjectKey: key, OwnerID: ownerID}
	if err := s.CreateProject(context.Background(), project); err != nil {
		t.Fatalf("CreateProject(%q) error = %v", key, err)
	}
	return project
}

func seedFeedback(t *testing.T, s *Store, projectID string, kind model.FeedbackType) *model.Feedback {
	t.Helper()
	feedback := &model.Feedback{ProjectID: projectID, Type: kind, Message: "something"}
	if err := s.CreateFeedback(context.Background(), feedback); err != nil {
		t.Fatalf("CreateFeedback() error = %v", err)
	}
	return feedback
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := New()
	seedUser(t, s, "dup@example.com")

	err := s.CreateUser(context.Background(), &model.User{Email: "dup@example.com"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() duplicate error = %v, want ErrConflict", err)
	}
}

func TestUpsertGitHubUser_StableID(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := &model.User{Email: "gh@example.com", Name: "Old Name", GitHubID: 42}
	if err := s.UpsertGitHubUser(ctx, first); err != nil {
		t.Fatalf("UpsertGitHubUser() error = %v", err)
	}

	second := &model.User{Email: "gh@example.com", Name: "New Name", GitHubID: 42}
	if err := s.UpsertGitHubUser(ctx, second); err != nil {
		t.Fatalf("UpsertGitHubUser() second login error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("internal ID changed across logins: %q then %q", first.ID, second.ID)
	}

	got, err := s.GetUserByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Name != "New Name" {
		t.Errorf("Name = %q, want refreshed profile", got.Name)
	}
}

func TestCreateProject_MissingOwner(t *testing.T) {
	s := New()
	err := s.CreateProject(context.Background(), &model.Project{
		Name:       "Orphan",
		ProjectKey: "fp_orphan",
		OwnerID:    "no-such-user",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateProject() missing owner error = %v, want ErrConflict", err)
	}
}

func TestCreateFeedback_MissingProject(t *testing.T) {
	s := New()
	err := s.CreateFeedback(context.Background(), &model.Feedback{
		ProjectID: "no-such-project",
		Type:      model.TypeBug,
		Message:   "orphan",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateFeedback() missing project error = %v, want ErrConflict", err)
	}
}

func TestGetOwnedProject_TenantIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")
	mallory := seedUser(t, s, "mallory@example.com")
	project := seedProject(t, s, alice.ID, "fp_iso")

	if _, err := s.GetOwnedProject(ctx, project.ID, alice.ID); err != nil {
		t.Fatalf("GetOwnedProject() owner error = %v", err)
	}
	_, err := s.GetOwnedProject(ctx, project.ID, mallory.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetOwnedProject() cross-tenant error = %v, want ErrNotFound", err)
	}
}

func TestGetProjectByKey(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com")
	project := seedProject(t, s, owner.ID, "fp_key")

	got, err := s.GetProjectByKey(ctx, "fp_key")
	if err != nil {
		t.Fatalf("GetProjectByKey() error = %v", err)
	}
	if got.ID != project.ID {
		t.Errorf("ID = %q, want %q", got.ID, project.ID)
	}

	_, err = s.GetProjectByKey(ctx, "fp_missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetProjectByKey() unknown key error = %v, want ErrNotFound", err)
	}
}

func TestRenameOwnedProject_Counts(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")
	mallory := seedUser(t, s, "mallory@example.com")
	project := seedProject(t, s, alice.ID, "fp_rename")

	count, err := s.RenameOwnedProject(ctx, project.ID, mallory.ID, "Stolen")
	if err != nil {
		t.Fatalf("RenameOwnedProject() cross-tenant error = %v", err)
	}
	if count != 0 {
		t.Errorf("cross-tenant count = %d, want 0", count)
	}

	count, err = s.RenameOwnedProject(ctx, project.ID, alice.ID, "Renamed")
	if err != nil {
		t.Fatalf("RenameOwnedProject() error = %v", err)
	}
	if count != 1 {
		t.Errorf("owner count = %d, want 1", count)
	}

	got, _ := s.GetOwnedProject(ctx, project.ID, alice.ID)
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want %q", got.Name, "Renamed")
	}
}

func TestDeleteOwnedProject_Cascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com")
	project := seedProject(t, s, owner.ID, "fp_cascade")
	feedback := seedFeedback(t, s, project.ID, model.TypeBug)
	if err := s.CreateLabel(ctx, &model.Label{FeedbackID: feedback.ID, Label: "Priority"}); err != nil {
		t.Fatalf("CreateLabel() error = %v", err)
	}

	count, err := s.DeleteOwnedProject(ctx, project.ID, owner.ID)
	if err != nil {
		t.Fatalf("DeleteOwnedProject() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	s.mu.RLock()
	feedbackLeft, labelsLeft := len(s.feedback), len(s.labels)
	s.mu.RUnlock()
	if feedbackLeft != 0 || labelsLeft != 0 {
		t.Errorf("cascade left %d feedback and %d labels", feedbackLeft, labelsLeft)
	}
}

func TestListProjectsByOwner_CountsAndOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com")
	other := seedUser(t, s, "other@example.com")

	first := seedProject(t, s, owner.ID, "fp_first")
	second := seedProject(t, s, owner.ID, "fp_second")
	seedProject(t, s, other.ID, "fp_theirs")

	seedFeedback(t, s, first.ID, model.TypeBug)
	seedFeedback(t, s, first.ID, model.TypeFeature)

	projects, err := s.ListProjectsByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListProjectsByOwner() error = %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}
	if projects[0].ID != second.ID {
		t.Errorf("projects[0].ID = %q, want most recent %q", projects[0].ID, second.ID)
	}

	counts := map[string]int{}
	for _, p := range projects {
		counts[p.ID] = p.FeedbackCount
	}
	if counts[first.ID] != 2 || counts[second.ID] != 0 {
		t.Errorf("feedback counts = %v", counts)
	}
}

func TestListFeedbackByProject_FilterAndPages(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com")
	project := seedProject(t, s, owner.ID, "fp_list")

	seedFeedback(t, s, project.ID, model.TypeBug)
	seedFeedback(t, s, project.ID, model.TypeBug)
	seedFeedback(t, s, project.ID, model.TypeFeature)

	bugs, err := s.ListFeedbackByProject(ctx, project.ID,
		repository.FeedbackFilter{Type: model.TypeBug}, repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ListFeedbackByProject() error = %v", err)
	}
	if len(bugs) != 2 {
		t.Errorf("got %d bugs, want 2", len(bugs))
	}

	count, err := s.CountFeedbackByProject(ctx, project.ID, repository.FeedbackFilter{Type: model.TypeBug})
	if err != nil {
		t.Fatalf("CountFeedbackByProject() error = %v", err)
	}
	if count != 2 {
		t.Errorf("filtered count = %d, want 2", count)
	}

	empty, err := s.ListFeedbackByProject(ctx, project.ID,
		repository.FeedbackFilter{}, repository.ListOptions{Limit: 10, Offset: 10})
	if err != nil {
		t.Fatalf("ListFeedbackByProject() past end error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("page past end: got %d items, want 0", len(empty))
	}
}

func TestDeleteOwnedLabel_OwnershipChain(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice := seedUser(t, s, "alice@example.com")
	mallory := seedUser(t, s, "mallory@example.com")
	project := seedProject(t, s, alice.ID, "fp_label")
	feedback := seedFeedback(t, s, project.ID, model.TypeOther)

	label := &model.Label{FeedbackID: feedback.ID, Label: "Design"}
	if err := s.CreateLabel(ctx, label); err != nil {
		t.Fatalf("CreateLabel() error = %v", err)
	}

	count, err := s.DeleteOwnedLabel(ctx, label.ID, feedback.ID, mallory.ID)
	if err != nil || count != 0 {
		t.Errorf("cross-tenant delete = (%d, %v), want (0, nil)", count, err)
	}

	count, err = s.DeleteOwnedLabel(ctx, label.ID, feedback.ID, alice.ID)
	if err != nil || count != 1 {
		t.Errorf("owner delete = (%d, %v), want (1, nil)", count, err)
	}
}
