package sqlite

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/feedbackpulse/feedback-pulse/internal/model"
)

// CreateLabel inserts a label row. The service has already verified the
// target feedback belongs to the caller via GetOwnedFeedback, and the FK on
// feedback_id guards against the feedback vanishing in between.
func (db *DB) CreateLabel(ctx context.Context, label *model.Label) error {
	label.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO labels (id, feedback_id, label) VALUES (?, ?, ?)`,
		label.ID,
		label.FeedbackID,
		label.Label,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating label: %w", err)
	}
	return nil
}

// DeleteOwnedLabel deletes a label only when the label ID, its feedback ID,
// and the full ownership chain up to ownerID all hold at once. A label on
// another tenant's feedback matches zero rows — the caller sees exactly what
// a nonexistent label ID produces.
func (db *DB) DeleteOwnedLabel(ctx context.Context, labelID, feedbackID, ownerID string) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM labels
		 WHERE id = ? AND feedback_id = ?
		   AND feedback_id IN (
		     SELECT f.id FROM feedback f
		     JOIN projects p ON p.id = f.project_id
		     WHERE p.owner_id = ?
		   )`,
		labelID, feedbackID, ownerID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting label %s: %w", labelID, err)
	}
	return result.RowsAffected()
}
