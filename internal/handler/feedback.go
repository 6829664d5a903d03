package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/auth"
	"github.com/feedbackpulse/feedback-pulse/internal/service"
)

// FeedbackHandler serves the public ingestion endpoint and the owner's
// label operations. Ingestion is the one unauthenticated write in the
// whole API: the widget posts here from arbitrary third-party origins,
// so the route is mounted inside the CORS-open group.
type FeedbackHandler struct {
	svc    *service.FeedbackService
	logger *slog.Logger
}

func NewFeedbackHandler(svc *service.FeedbackService, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{svc: svc, logger: logger}
}

type submitRequest struct {
	ProjectKey string `json:"projectKey"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	Email      string `json:"email"`
}

// HandleSubmit ingests visitor feedback from the widget.
//
// HTTP: POST /api/feedback/submit
// {"projectKey","type","message","email?"} → 201 {"success":true,"feedback":{...}}
//
// An unknown key is reported as "Invalid project key" — deliberately
// vague, since the caller is anonymous. The User-Agent header is
// captured as submission metadata.
func (h *FeedbackHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	feedback, err := h.svc.Submit(r.Context(),
		req.ProjectKey, req.Type, req.Message, req.Email, r.UserAgent())
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "Invalid project key"})
			return
		}
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"feedback": feedback,
	})
}

// HandleAddLabel attaches a label to an owned feedback item.
//
// HTTP: POST /api/feedback/{feedbackID}/labels {"label"} → 201 {"label":{...}}
func (h *FeedbackHandler) HandleAddLabel(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Label string `json:"label"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	label, err := h.svc.AddLabel(r.Context(), chi.URLParam(r, "feedbackID"), userID, req.Label)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"label": label})
}

// HandleRemoveLabel deletes a label from an owned feedback item.
//
// HTTP: DELETE /api/feedback/{feedbackID}/labels?labelId= → {"success":true}
//
// Missing labelId is a 400; a label that is absent or belongs to another
// tenant is a 404 either way.
func (h *FeedbackHandler) HandleRemoveLabel(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	labelID := r.URL.Query().Get("labelId")
	if err := h.svc.RemoveLabel(r.Context(), labelID, chi.URLParam(r, "feedbackID"), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
