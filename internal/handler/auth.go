package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/auth"
	"github.com/feedbackpulse/feedback-pulse/internal/service"
)

// AuthHandler serves signup, login, logout, the current-user probe, and
// the GitHub OAuth flow. It owns all session-cookie writes; services
// never touch cookies.
type AuthHandler struct {
	svc    *service.AuthService
	tokens *auth.TokenService
	github *auth.GitHubProvider // nil when OAuth is not configured
	appURL string
	logger *slog.Logger
}

func NewAuthHandler(
	svc *service.AuthService,
	tokens *auth.TokenService,
	github *auth.GitHubProvider,
	appURL string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		tokens: tokens,
		github: github,
		appURL: appURL,
		logger: logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// HandleSignup registers an account and starts a session.
//
// HTTP: POST /api/auth/signup {"email","password","name"}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.svc.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.startSession(w, result)
	writeJSON(w, http.StatusCreated, map[string]any{"user": result.User})
}

// HandleLogin verifies credentials and starts a session.
//
// HTTP: POST /api/auth/login {"email","password"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.startSession(w, result)
	writeJSON(w, http.StatusOK, map[string]any{"user": result.User})
}

// HandleLogout clears the session cookie. Always succeeds; logging out
// twice is fine.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleMe returns the logged-in user's profile.
//
// A valid cookie whose user row is gone gets a 401 AND a cookie clear,
// so the browser stops replaying the dead session.
//
// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.svc.CurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			auth.ClearSessionCookie(w)
		}
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
// The random state lands in a short-lived cookie; the callback checks it.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.Error(w, "GitHub login is not configured", http.StatusNotFound)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: verify the CSRF state,
// exchange the code for a profile, upsert the user, start a session, and
// send the browser back to the dashboard.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.Error(w, "GitHub login is not configured", http.StatusNotFound)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback with bad state")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		// User clicked "deny" on GitHub.
		http.Redirect(w, r, h.appURL+"/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth exchange failed", slog.String("error", err.Error()))
		http.Error(w, "GitHub login failed", http.StatusBadGateway)
		return
	}

	result, err := h.svc.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.startSession(w, result)
	http.Redirect(w, r, h.appURL+"/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, result *service.AuthResult) {
	auth.SetSessionCookie(w, result.Token, int(h.tokens.SessionTTL().Seconds()))
}
