package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/model"
)

// CreateProject inserts a project. The caller (service layer) has already
// generated the public project key.
//
// STALE SESSION DETECTION:
// owner_id references users(id). If the session's user was deleted after the
// token was issued, the insert trips the foreign key constraint. We surface
// that as Conflict — the service maps it to an auth failure, because the root
// cause is a session referencing a row that no longer exists, not a server bug.
func (db *DB) CreateProject(ctx context.Context, project *model.Project) error {
	project.ID = xid.New().String()
	project.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO projects (id, name, project_key, owner_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		project.ID,
		project.Name,
		project.ProjectKey,
		project.OwnerID,
		project.CreatedAt,
	)
	if err != nil {
		if isConstraintErr(err, "FOREIGN KEY constraint failed") {
			return apperror.Conflict("project owner does not exist")
		}
		if isConstraintErr(err, "projects.project_key") {
			return apperror.Conflict("project key collision")
		}
		return fmt.Errorf("sqlite: creating project: %w", err)
	}

	project.FeedbackCount = 0
	return nil
}

// GetProjectByKey resolves a public project key. This is the one project
// lookup with no owner predicate: the key itself is the capability.
func (db *DB) GetProjectByKey(ctx context.Context, key string) (*model.Project, error) {
	var p model.Project
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, project_key, owner_id, created_at
		 FROM projects
		 WHERE project_key = ?`,
		key,
	).Scan(&p.ID, &p.Name, &p.ProjectKey, &p.OwnerID, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("Project")
		}
		return nil, fmt.Errorf("sqlite: getting project by key: %w", err)
	}
	return &p, nil
}

// GetOwnedProject returns the project with its feedback count. The owner
// predicate is part of the WHERE clause — a project owned by someone else
// scans as no rows, indistinguishable from a project that never existed.
func (db *DB) GetOwnedProject(ctx context.Context, id, ownerID string) (*model.Project, error) {
	var p model.Project
	err := db.conn.QueryRowContext(ctx,
		`SELECT p.id, p.name, p.project_key, p.owner_id, p.created_at,
		        (SELECT COUNT(*) FROM feedback f WHERE f.project_id = p.id)
		 FROM projects p
		 WHERE p.id = ? AND p.owner_id = ?`,
		id, ownerID,
	).Scan(&p.ID, &p.Name, &p.ProjectKey, &p.OwnerID, &p.CreatedAt, &p.FeedbackCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("Project")
		}
		return nil, fmt.Errorf("sqlite: getting project %s: %w", id, err)
	}
	return &p, nil
}

// ListProjectsByOwner returns all of the owner's projects newest-first, each
// with its feedback count computed in the same query. Counts are always
// computed on read; nothing maintains a counter at write time.
func (db *DB) ListProjectsByOwner(ctx context.Context, ownerID string) ([]model.Project, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.id, p.name, p.project_key, p.owner_id, p.created_at,
		        (SELECT COUNT(*) FROM feedback f WHERE f.project_id = p.id)
		 FROM projects p
		 WHERE p.owner_id = ?
		 ORDER BY p.created_at DESC, p.id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	defer rows.Close()

	projects := make([]model.Project, 0)
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.ProjectKey, &p.OwnerID, &p.CreatedAt, &p.FeedbackCount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating projects: %w", err)
	}

	return projects, nil
}

// RenameOwnedProject updates the name where both id and owner match, in one
// statement. The returned count lets the caller distinguish "renamed" from
// "not found or not owned" without a second query — and without a window
// between an ownership check and the write.
func (db *DB) RenameOwnedProject(ctx context.Context, id, ownerID, name string) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE projects SET name = ? WHERE id = ? AND owner_id = ?`,
		name, id, ownerID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: renaming project %s: %w", id, err)
	}
	return result.RowsAffected()
}

// DeleteOwnedProject deletes the project where both id and owner match.
// ON DELETE CASCADE removes the project's feedback and, transitively, every
// label on that feedback.
func (db *DB) DeleteOwnedProject(ctx context.Context, id, ownerID string) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM projects WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting project %s: %w", id, err)
	}
	return result.RowsAffected()
}
