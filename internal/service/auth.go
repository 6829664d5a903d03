// Package service contains the business logic layer.
//
// Handlers parse HTTP and write responses; services validate input and
// enforce ownership and session rules; repositories talk to the store.
// Services depend on the repository interfaces, never on a concrete
// store, so the same logic runs against sqlite in production and the
// memory store in tests.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/auth"
	"github.com/feedbackpulse/feedback-pulse/internal/model"
	"github.com/feedbackpulse/feedback-pulse/internal/repository"
	"github.com/feedbackpulse/feedback-pulse/internal/validate"
)

const (
	MinPasswordLength = 6
	MaxNameLength     = 100
)

// staleSessionMessage is what a caller sees when their cookie references a
// user that no longer exists. The handler pairs it with a cookie clear so
// the browser stops replaying the dead session.
const staleSessionMessage = "Invalid session. Please log in again."

// AuthService orchestrates signup, login, and the GitHub OAuth callback.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the session cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup registers a new email/password account and issues a session.
// A duplicate email surfaces as apperror.ErrConflict from the repository.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	var c validate.Checker
	c.Require("email", email, "Email is required")
	c.Email("email", email)
	c.Require("password", password, "Password is required")
	if password != "" && len(password) < MinPasswordLength {
		c.Add("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	c.MaxLen("name", name, MaxNameLength, fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	if err := c.Err(); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID), slog.String("email", user.Email))

	return s.issueSession(user)
}

// Login verifies an email/password pair and issues a session.
//
// A wrong password and an unknown email both come back as the same
// Unauthorized error, so the login form cannot be used to probe which
// emails have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var c validate.Checker
	c.Require("email", email, "Email is required")
	c.Require("password", password, "Password is required")
	if err := c.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid email or password")
		}
		return nil, err
	}

	// OAuth-only accounts have no password hash; they cannot log in with
	// a password at all.
	if user.PasswordHash == "" || s.passwords.Verify(user.PasswordHash, password) != nil {
		return nil, apperror.Unauthorized("Invalid email or password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issueSession(user)
}

// LoginOrRegisterGitHub completes the OAuth callback: upsert the user on
// their stable GitHub ID, then issue a session. First login inserts;
// later logins refresh the profile fields but keep the internal ID.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service: GitHub user must not be nil")
	}

	name := ghUser.Name
	if name == "" {
		name = ghUser.Login
	}
	email := ghUser.Email
	if email == "" {
		// GitHub lets users hide their email. We still need one for the
		// unique column, so fall back to the noreply convention.
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", ghUser.ID, ghUser.Login)
	}

	user := &model.User{
		GitHubID: ghUser.ID,
		Email:    strings.ToLower(email),
		Name:     name,
	}
	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service: upserting GitHub user %d: %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)

	return s.issueSession(user)
}

// CurrentUser resolves a session's userID to the user record.
// A userID whose row is gone means the session outlived the account;
// that is an auth failure, not a 404.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(staleSessionMessage)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueSession(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service: generating session for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
