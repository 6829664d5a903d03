package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/model"
	"github.com/feedbackpulse/feedback-pulse/internal/repository"
)

// CreateFeedback inserts a visitor submission. Optional columns (email,
// user agent, sentiment) store NULL rather than empty strings so "absent"
// is unambiguous in the data.
func (db *DB) CreateFeedback(ctx context.Context, feedback *model.Feedback) error {
	feedback.ID = xid.New().String()
	feedback.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO feedback (id, project_id, type, message, email, user_agent, sentiment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		feedback.ID,
		feedback.ProjectID,
		string(feedback.Type),
		feedback.Message,
		nullIfEmpty(feedback.Email),
		nullIfEmpty(feedback.UserAgent),
		nullIfEmpty(feedback.Sentiment),
		feedback.CreatedAt,
	)
	if err != nil {
		if isConstraintErr(err, "FOREIGN KEY constraint failed") {
			return apperror.Conflict("project does not exist")
		}
		return fmt.Errorf("sqlite: creating feedback: %w", err)
	}

	if feedback.Labels == nil {
		feedback.Labels = []model.Label{}
	}
	return nil
}

// GetOwnedFeedback fetches a feedback item only when its ownership chain
// (feedback → project → owner) reaches ownerID. The join IS the authorization:
// someone else's feedback ID produces zero rows, same as a made-up ID.
func (db *DB) GetOwnedFeedback(ctx context.Context, id, ownerID string) (*model.Feedback, error) {
	var (
		f         model.Feedback
		email     sql.NullString
		userAgent sql.NullString
		sentiment sql.NullString
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT f.id, f.project_id, f.type, f.message, f.email, f.user_agent, f.sentiment, f.created_at
		 FROM feedback f
		 JOIN projects p ON p.id = f.project_id
		 WHERE f.id = ? AND p.owner_id = ?`,
		id, ownerID,
	).Scan(&f.ID, &f.ProjectID, &f.Type, &f.Message, &email, &userAgent, &sentiment, &f.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("Feedback")
		}
		return nil, fmt.Errorf("sqlite: getting feedback %s: %w", id, err)
	}

	f.Email = email.String
	f.UserAgent = userAgent.String
	f.Sentiment = sentiment.String
	f.Labels = []model.Label{}
	return &f, nil
}

// ListFeedbackByProject returns one page of a project's feedback newest-first
// with labels attached.
//
// Labels are loaded in a second query with an IN clause over the page's IDs
// rather than a join — a join would duplicate each feedback row per label and
// break LIMIT/OFFSET math.
func (db *DB) ListFeedbackByProject(ctx context.Context, projectID string, filter repository.FeedbackFilter, opts repository.ListOptions) ([]model.Feedback, error) {
	query := `SELECT id, project_id, type, message, email, user_agent, sentiment, created_at
	          FROM feedback
	          WHERE project_id = ?`
	args := []any{projectID}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing feedback: %w", err)
	}
	defer rows.Close()

	items := make([]model.Feedback, 0, opts.Limit)
	for rows.Next() {
		var (
			f         model.Feedback
			email     sql.NullString
			userAgent sql.NullString
			sentiment sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Type, &f.Message, &email, &userAgent, &sentiment, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning feedback row: %w", err)
		}
		f.Email = email.String
		f.UserAgent = userAgent.String
		f.Sentiment = sentiment.String
		f.Labels = []model.Label{}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating feedback: %w", err)
	}

	if err := db.attachLabels(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// CountFeedbackByProject counts feedback under the same filter the page query
// uses, so total/totalPages describe the same result set.
func (db *DB) CountFeedbackByProject(ctx context.Context, projectID string, filter repository.FeedbackFilter) (int, error) {
	query := `SELECT COUNT(*) FROM feedback WHERE project_id = ?`
	args := []any{projectID}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}

	var count int
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: counting feedback: %w", err)
	}
	return count, nil
}

// attachLabels fills the Labels slice of each feedback item in one query.
func (db *DB) attachLabels(ctx context.Context, items []model.Feedback) error {
	if len(items) == 0 {
		return nil
	}

	placeholders := make([]string, len(items))
	args := make([]any, len(items))
	index := make(map[string]int, len(items))
	for i := range items {
		placeholders[i] = "?"
		args[i] = items[i].ID
		index[items[i].ID] = i
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, feedback_id, label FROM labels
		 WHERE feedback_id IN (`+strings.Join(placeholders, ", ")+`)
		 ORDER BY id`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.Label
		if err := rows.Scan(&l.ID, &l.FeedbackID, &l.Label); err != nil {
			return fmt.Errorf("sqlite: scanning label row: %w", err)
		}
		if i, ok := index[l.FeedbackID]; ok {
			items[i].Labels = append(items[i].Labels, l)
		}
	}
	return rows.Err()
}
