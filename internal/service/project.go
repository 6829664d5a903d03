package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/model"
	"github.com/feedbackpulse/feedback-pulse/internal/repository"
	"github.com/feedbackpulse/feedback-pulse/internal/validate"
)

const (
	MaxProjectNameLength = 100

	// projectKeyBytes is the entropy behind a project key: 8 random bytes
	// hex-encoded to 16 characters after the "fp_" prefix. The key is the
	// only credential the widget carries, so it has to be unguessable.
	projectKeyBytes = 8
)

// ProjectService handles project CRUD for the owner API. Every read and
// write is scoped to the requesting owner at the query level; there is no
// fetch-then-check step that could leak another tenant's data.
type ProjectService struct {
	projects repository.ProjectRepository
	logger   *slog.Logger
}

func NewProjectService(projects repository.ProjectRepository, logger *slog.Logger) *ProjectService {
	return &ProjectService{projects: projects, logger: logger}
}

// Create validates the name, generates a fresh project key, and inserts.
//
// The repository reports a missing owner as a Conflict (the FK fails).
// That only happens when a session cookie outlives its user, so it is
// translated to an auth failure here rather than surfacing as a 409.
func (s *ProjectService) Create(ctx context.Context, ownerID, name string) (*model.Project, error) {
	name = strings.TrimSpace(name)

	var c validate.Checker
	c.Require("name", name, "Project name is required")
	c.MaxLen("name", name, MaxProjectNameLength,
		fmt.Sprintf("project name must be %d characters or less", MaxProjectNameLength))
	if err := c.Err(); err != nil {
		return nil, err
	}

	key, err := generateProjectKey()
	if err != nil {
		return nil, fmt.Errorf("service: generating project key: %w", err)
	}

	project := &model.Project{
		Name:       name,
		ProjectKey: key,
		OwnerID:    ownerID,
	}
	if err := s.projects.CreateProject(ctx, project); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Warn("project create with stale session", slog.String("ownerID", ownerID))
			return nil, apperror.Unauthorized("Invalid user session. Please log in again.")
		}
		return nil, fmt.Errorf("service: creating project: %w", err)
	}

	s.logger.Info("project created",
		slog.String("projectID", project.ID),
		slog.String("ownerID", ownerID),
	)

	return project, nil
}

// List returns the owner's projects, newest first, with feedback counts.
func (s *ProjectService) List(ctx context.Context, ownerID string) ([]model.Project, error) {
	projects, err := s.projects.ListProjectsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service: listing projects: %w", err)
	}
	return projects, nil
}

// Get returns one of the owner's projects. A project owned by someone
// else comes back as NotFound, same as one that does not exist.
func (s *ProjectService) Get(ctx context.Context, projectID, ownerID string) (*model.Project, error) {
	return s.projects.GetOwnedProject(ctx, projectID, ownerID)
}

// LookupByKey resolves a public project key. Used by the widget
// endpoints, which carry no session; the key itself is the capability.
func (s *ProjectService) LookupByKey(ctx context.Context, projectKey string) (*model.Project, error) {
	return s.projects.GetProjectByKey(ctx, projectKey)
}

// Rename updates a project's name. The rename is a single ownership-scoped
// UPDATE; zero rows touched means absent or not owned.
func (s *ProjectService) Rename(ctx context.Context, projectID, ownerID, name string) (*model.Project, error) {
	name = strings.TrimSpace(name)

	var c validate.Checker
	c.Require("name", name, "Project name is required")
	c.MaxLen("name", name, MaxProjectNameLength,
		fmt.Sprintf("project name must be %d characters or less", MaxProjectNameLength))
	if err := c.Err(); err != nil {
		return nil, err
	}

	count, err := s.projects.RenameOwnedProject(ctx, projectID, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("service: renaming project: %w", err)
	}
	if count == 0 {
		return nil, apperror.NotFound("Project")
	}

	return s.projects.GetOwnedProject(ctx, projectID, ownerID)
}

// Delete removes a project and, through the schema cascade, all of its
// feedback and labels.
func (s *ProjectService) Delete(ctx context.Context, projectID, ownerID string) error {
	count, err := s.projects.DeleteOwnedProject(ctx, projectID, ownerID)
	if err != nil {
		return fmt.Errorf("service: deleting project: %w", err)
	}
	if count == 0 {
		return apperror.NotFound("Project")
	}

	s.logger.Info("project deleted",
		slog.String("projectID", projectID),
		slog.String("ownerID", ownerID),
	)
	return nil
}

func generateProjectKey() (string, error) {
	buf := make([]byte, projectKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "fp_" + hex.EncodeToString(buf), nil
}
