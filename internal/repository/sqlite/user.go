package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/model"
	"github.com/feedbackpulse/feedback-pulse/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X.
// If *Y doesn't implement X, the compiler errors immediately instead of at
// the first call site. One check for the whole Store surface.
var _ repository.Store = (*DB)(nil)

// CreateUser inserts a new user account.
//
// The UNIQUE constraint on users.email is the source of truth for duplicate
// detection — checking first with a SELECT would leave a race between the
// check and the insert, so we insert and classify the constraint failure.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, github_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.GitHubID,
		user.CreatedAt,
	)
	if err != nil {
		if isConstraintErr(err, "users.email") {
			return apperror.Conflict("email already registered")
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email address.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, email)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var user model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, github_id, created_at
		 FROM users `+where, arg,
	).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.GitHubID,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}
	return &user, nil
}

// UpsertGitHubUser inserts or refreshes a user keyed by GitHub ID.
//
// First OAuth login → INSERT with a fresh internal ID. Subsequent logins →
// UPDATE name/email in case the GitHub profile changed, keeping the existing
// internal ID so the user's projects stay attached.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET name = ?, email = ? WHERE id = ?`,
			user.Name,
			user.Email,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}

		// Read back created_at so the caller holds the canonical record.
		return db.conn.QueryRowContext(ctx,
			`SELECT created_at FROM users WHERE id = ?`, user.ID,
		).Scan(&user.CreatedAt)
	}

	return db.CreateUser(ctx, user)
}
