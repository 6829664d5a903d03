package sqlite

import (
	"context"
	"testing"

	"github.com/feedbackpulse/feedback-pulse/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// Using ":memory:" creates a fresh database that exists only during the test.
// Fast (no disk I/O), isolated (each test gets its own database), and clean
// (destroyed when the connection closes).
//
// newTestDB is a "test helper". The t.Helper() call tells Go's test framework
// to report failures at the CALLER's line number, not inside this function.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: "Test User", PasswordHash: "x"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestProject(t *testing.T, db *DB, ownerID, name, key string) *model.Project {
	t.Helper()
	project := &model.Project{Name: name, ProjectKey: key, OwnerID: ownerID}
	if err := db.CreateProject(context.Background(), project); err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return project
}

func createTestFeedback(t *testing.T, db *DB, projectID string, typ model.FeedbackType, message string) *model.Feedback {
	t.Helper()
	feedback := &model.Feedback{ProjectID: projectID, Type: typ, Message: message}
	if err := db.CreateFeedback(context.Background(), feedback); err != nil {
		t.Fatalf("failed to create test feedback: %v", err)
	}
	return feedback
}
