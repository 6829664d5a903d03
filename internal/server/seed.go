package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/auth"
	"github.com/feedbackpulse/feedback-pulse/internal/model"
	"github.com/feedbackpulse/feedback-pulse/internal/repository"
)

const (
	demoEmail    = "demo@feedbackpulse.com"
	demoPassword = "demo123"
)

// seedDemo creates the demo account with two projects and a handful of
// feedback so a fresh install has something to show. Runs only when
// SEED_DEMO=1 and the demo user does not exist yet; a second start with
// the flag set is a no-op.
//
// This is the single write path for feedback that does not go through the
// ingestion endpoint.
func seedDemo(ctx context.Context, store repository.Store, logger *slog.Logger) error {
	if _, err := store.GetUserByEmail(ctx, demoEmail); err == nil {
		return nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	hash, err := auth.NewPasswordService().Hash(demoPassword)
	if err != nil {
		return fmt.Errorf("hashing demo password: %w", err)
	}

	user := &model.User{
		Email:        demoEmail,
		Name:         "Demo User",
		PasswordHash: hash,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return err
	}

	projects := []*model.Project{
		{Name: "My Portfolio", ProjectKey: "fp_demo1234portfolio", OwnerID: user.ID},
		{Name: "SaaS Landing Page", ProjectKey: "fp_demo5678saaspage0", OwnerID: user.ID},
	}
	for _, p := range projects {
		if err := store.CreateProject(ctx, p); err != nil {
			return err
		}
	}

	samples := []struct {
		project int
		kind    model.FeedbackType
		message string
		email   string
		labels  []string
	}{
		{0, model.TypeBug, "The contact form doesn't submit on mobile Safari.", "visitor@example.com", []string{"Priority"}},
		{0, model.TypeFeature, "Would love a dark mode toggle.", "", []string{"Design"}},
		{0, model.TypeOther, "Great portfolio, clean design!", "", nil},
		{1, model.TypeBug, "Pricing table overlaps the footer on small screens.", "qa@example.com", nil},
		{1, model.TypeFeature, "Add annual billing with a discount.", "", []string{"Pricing", "Priority"}},
	}
	for _, sample := range samples {
		feedback := &model.Feedback{
			ProjectID: projects[sample.project].ID,
			Type:      sample.kind,
			Message:   sample.message,
			Email:     sample.email,
			UserAgent: "Mozilla/5.0 (seed)",
		}
		if err := store.CreateFeedback(ctx, feedback); err != nil {
			return err
		}
		for _, text := range sample.labels {
			if err := store.CreateLabel(ctx, &model.Label{FeedbackID: feedback.ID, Label: text}); err != nil {
				return err
			}
		}
	}

	logger.Info("seeded demo data",
		slog.String("email", demoEmail),
		slog.Int("projects", len(projects)),
		slog.Int("feedback", len(samples)),
	)
	return nil
}
