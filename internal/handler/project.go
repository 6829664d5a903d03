package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/auth"
	"github.com/feedbackpulse/feedback-pulse/internal/model"
	"github.com/feedbackpulse/feedback-pulse/internal/service"
)

// ProjectHandler serves the owner API for projects and their feedback
// pages. Every route behind it runs inside auth.RequireAuth, so the
// userID in the context is always set.
type ProjectHandler struct {
	projects *service.ProjectService
	feedback *service.FeedbackService
	logger   *slog.Logger
}

func NewProjectHandler(projects *service.ProjectService, feedback *service.FeedbackService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, feedback: feedback, logger: logger}
}

// HandleList returns all of the caller's projects with feedback counts.
//
// HTTP: GET /api/projects → {"projects":[...]}
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	projects, err := h.projects.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// HandleCreate creates a project and returns it with its fresh key.
//
// A stale session (cookie outlived the user row) fails the owner FK;
// that comes back as a 401 with a cookie clear, not a 409 or 500.
//
// HTTP: POST /api/projects {"name"} → 201 {"project":{...}}
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	project, err := h.projects.Create(r.Context(), userID, req.Name)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			auth.ClearSessionCookie(w)
		}
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"project": project})
}

// HandleGet returns one project. Someone else's project is a 404.
//
// HTTP: GET /api/projects/{projectID} → {"project":{...}}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	project, err := h.projects.Get(r.Context(), chi.URLParam(r, "projectID"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"project": project})
}

// HandleRename updates a project's name. Name is the only mutable field;
// the key never changes once issued.
//
// HTTP: PATCH /api/projects/{projectID} {"name"} → {"project":{...}}
func (h *ProjectHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	project, err := h.projects.Rename(r.Context(), chi.URLParam(r, "projectID"), userID, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"project": project})
}

// HandleDelete removes a project and everything under it.
//
// HTTP: DELETE /api/projects/{projectID} → {"success":true}
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.projects.Delete(r.Context(), chi.URLParam(r, "projectID"), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// paginationBody mirrors what the dashboard's list view expects.
type paginationBody struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// HandleListFeedback returns one page of a project's feedback.
//
// HTTP: GET /api/projects/{projectID}/feedback?page=&limit=&type=
// → {"feedback":[...],"pagination":{page,limit,total,totalPages}}
//
// Unparseable page/limit values fall back to the defaults rather than
// erroring; the type filter is validated strictly.
func (h *ProjectHandler) HandleListFeedback(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.feedback.ListForProject(r.Context(),
		chi.URLParam(r, "projectID"), userID, q.Get("type"), page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	items := result.Items
	if items == nil {
		items = []model.Feedback{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"feedback": items,
		"pagination": paginationBody{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		},
	})
}
