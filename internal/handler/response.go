// Package handler is the HTTP layer: it parses requests, calls services,
// and writes JSON. All domain decisions live below it.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/validate"
)

// errorBody is the error envelope every endpoint uses. The "error" value
// is a string for most failures and a list of {field, message} objects
// for validation failures, which is what the dashboard forms and the
// widget both expect.
type errorBody struct {
	Error any `json:"error"`
}

// writeJSON sends a JSON response. Headers and status must go out before
// the first body byte; Encode writes the body, so it comes last.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone, nothing left to do but log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error onto the wire.
//
//	validate.Errors      → 400, error is the field list
//	apperror.ErrValidation → 400, single-field list
//	apperror.ErrUnauthorized → 401
//	apperror.ErrNotFound → 404
//	apperror.ErrConflict → 409
//	anything else        → 500 with a generic body; the real error is
//	                       logged server-side, never sent to the client
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verrs})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrValidation):
			writeJSON(w, http.StatusBadRequest, errorBody{
				Error: validate.Errors{{Field: appErr.Field, Message: appErr.Message}},
			})
		case errors.Is(err, apperror.ErrUnauthorized):
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: appErr.Message})
		case errors.Is(err, apperror.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody{Error: appErr.Message})
		case errors.Is(err, apperror.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody{Error: appErr.Message})
		default:
			logger.Error("unhandled app error", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		}
		return
	}

	logger.Error("internal error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
}

// decodeJSON parses a request body into dst. A malformed body is a
// validation failure on the whole body, not a 500.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return nil
}
