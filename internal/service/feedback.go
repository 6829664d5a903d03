package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/model"
	"github.com/feedbackpulse/feedback-pulse/internal/repository"
	"github.com/feedbackpulse/feedback-pulse/internal/validate"
)

const (
	MaxMessageLength = 2000
	MaxLabelLength   = 50

	DefaultPageSize = 10
	MaxPageSize     = 100
)

// FeedbackPage is one page of feedback plus the pagination summary the
// dashboard renders ("x of y", page controls).
type FeedbackPage struct {
	Items      []model.Feedback
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// FeedbackService handles both sides of the feedback flow: anonymous
// ingestion through the widget, and the owner's listing and labeling.
type FeedbackService struct {
	projects repository.ProjectRepository
	feedback repository.FeedbackRepository
	labels   repository.LabelRepository
	logger   *slog.Logger
}

func NewFeedbackService(
	projects repository.ProjectRepository,
	feedback repository.FeedbackRepository,
	labels repository.LabelRepository,
	logger *slog.Logger,
) *FeedbackService {
	return &FeedbackService{
		projects: projects,
		feedback: feedback,
		labels:   labels,
		logger:   logger,
	}
}

// Submit ingests one piece of visitor feedback. This is the only write
// path for feedback outside the demo seed; there is no authenticated
// "edit feedback" anywhere.
//
// The project key is the sole credential here. An unknown key returns
// NotFound, which the ingestion handler renders as "Invalid project key".
func (s *FeedbackService) Submit(ctx context.Context, projectKey, feedbackType, message, email, userAgent string) (*model.Feedback, error) {
	message = strings.TrimSpace(message)
	email = strings.TrimSpace(email)

	var c validate.Checker
	c.Require("projectKey", projectKey, "Project key is required")
	c.OneOf("type", feedbackType, string(model.TypeBug), string(model.TypeFeature), string(model.TypeOther))
	c.Require("message", message, "Message is required")
	c.MaxLen("message", message, MaxMessageLength,
		fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
	c.Email("email", email)
	if err := c.Err(); err != nil {
		return nil, err
	}

	project, err := s.projects.GetProjectByKey(ctx, projectKey)
	if err != nil {
		return nil, err
	}

	feedback := &model.Feedback{
		ProjectID: project.ID,
		Type:      model.FeedbackType(feedbackType),
		Message:   message,
		Email:     email,
		UserAgent: userAgent,
	}
	if err := s.feedback.CreateFeedback(ctx, feedback); err != nil {
		s.logger.Error("failed to store feedback",
			slog.String("projectID", project.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service: creating feedback: %w", err)
	}

	s.logger.Info("feedback received",
		slog.String("feedbackID", feedback.ID),
		slog.String("projectID", project.ID),
		slog.String("type", feedbackType),
	)

	return feedback, nil
}

// ListForProject returns one page of a project's feedback for its owner.
//
// page is 1-based and clamps up to 1; limit clamps into [1, MaxPageSize]
// with DefaultPageSize for zero. typeFilter is BUG, FEATURE, OTHER, or
// the empty string / "ALL" for no filter. A page past the end returns an
// empty page with the real total, not an error.
func (s *FeedbackService) ListForProject(ctx context.Context, projectID, ownerID, typeFilter string, page, limit int) (*FeedbackPage, error) {
	// Ownership gate first: the project must exist and belong to the
	// caller before any feedback is read.
	if _, err := s.projects.GetOwnedProject(ctx, projectID, ownerID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	filter := repository.FeedbackFilter{}
	switch typeFilter {
	case "", "ALL":
	case string(model.TypeBug), string(model.TypeFeature), string(model.TypeOther):
		filter.Type = model.FeedbackType(typeFilter)
	default:
		return nil, apperror.ValidationFailed("type", "type must be one of BUG, FEATURE, OTHER, ALL")
	}

	total, err := s.feedback.CountFeedbackByProject(ctx, projectID, filter)
	if err != nil {
		return nil, fmt.Errorf("service: counting feedback: %w", err)
	}

	items, err := s.feedback.ListFeedbackByProject(ctx, projectID, filter, repository.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("service: listing feedback: %w", err)
	}

	totalPages := (total + limit - 1) / limit

	return &FeedbackPage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// AddLabel attaches a free-text label to a feedback item the caller owns.
// Labels are not unique; tagging "Priority" twice yields two labels.
func (s *FeedbackService) AddLabel(ctx context.Context, feedbackID, ownerID, text string) (*model.Label, error) {
	text = strings.TrimSpace(text)

	var c validate.Checker
	c.Require("label", text, "Label is required")
	c.MaxLen("label", text, MaxLabelLength,
		fmt.Sprintf("label must be %d characters or less", MaxLabelLength))
	if err := c.Err(); err != nil {
		return nil, err
	}

	// The ownership check and the insert are separate statements, but the
	// insert targets a feedbackID we just proved the caller owns.
	if _, err := s.feedback.GetOwnedFeedback(ctx, feedbackID, ownerID); err != nil {
		return nil, err
	}

	label := &model.Label{FeedbackID: feedbackID, Label: text}
	if err := s.labels.CreateLabel(ctx, label); err != nil {
		return nil, fmt.Errorf("service: creating label: %w", err)
	}

	return label, nil
}

// RemoveLabel deletes a label through the full ownership chain
// (label → feedback → project → owner) in one statement. Zero rows means
// absent or not owned; callers cannot tell which.
func (s *FeedbackService) RemoveLabel(ctx context.Context, labelID, feedbackID, ownerID string) error {
	if strings.TrimSpace(labelID) == "" {
		return apperror.ValidationFailed("labelId", "labelId is required")
	}

	count, err := s.labels.DeleteOwnedLabel(ctx, labelID, feedbackID, ownerID)
	if err != nil {
		return fmt.Errorf("service: deleting label: %w", err)
	}
	if count == 0 {
		return apperror.NotFound("Label")
	}
	return nil
}
