package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackpulse/feedback-pulse/internal/handler"
	"github.com/feedbackpulse/feedback-pulse/internal/model"
	"github.com/feedbackpulse/feedback-pulse/internal/repository/memory"
	"github.com/feedbackpulse/feedback-pulse/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newIngestionFixture wires a FeedbackHandler over the memory store with
// one project whose key is fp_testsite.
func newIngestionFixture(t *testing.T) *handler.FeedbackHandler {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	owner := &model.User{Email: "owner@example.com", Name: "Owner"}
	require.NoError(t, store.CreateUser(ctx, owner))
	project := &model.Project{Name: "Site", ProjectKey: "fp_testsite", OwnerID: owner.ID}
	require.NoError(t, store.CreateProject(ctx, project))

	svc := service.NewFeedbackService(store, store, store, testLogger())
	return handler.NewFeedbackHandler(svc, testLogger())
}

func TestHandleSubmit(t *testing.T) {
	t.Run("valid submission", func(t *testing.T) {
		h := newIngestionFixture(t)

		body := `{"projectKey":"fp_testsite","type":"FEATURE","message":"Add dark mode","email":"visitor@example.com"}`
		req := httptest.NewRequest(http.MethodPost, "/api/feedback/submit", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "TestBrowser/1.0")
		rr := httptest.NewRecorder()

		h.HandleSubmit(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var res struct {
			Success  bool           `json:"success"`
			Feedback model.Feedback `json:"feedback"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.True(t, res.Success)
		assert.Equal(t, model.TypeFeature, res.Feedback.Type)
		assert.Equal(t, "Add dark mode", res.Feedback.Message)
		assert.Equal(t, "TestBrowser/1.0", res.Feedback.UserAgent)
		assert.NotEmpty(t, res.Feedback.ID)
	})

	t.Run("validation errors come back as a field list", func(t *testing.T) {
		h := newIngestionFixture(t)

		body := `{"projectKey":"fp_testsite","type":"RANT","message":"","email":"nope"}`
		req := httptest.NewRequest(http.MethodPost, "/api/feedback/submit", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		h.HandleSubmit(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var res struct {
			Error []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
			} `json:"error"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Len(t, res.Error, 3)
	})

	t.Run("unknown project key", func(t *testing.T) {
		h := newIngestionFixture(t)

		body := `{"projectKey":"fp_wrong","type":"BUG","message":"hello"}`
		req := httptest.NewRequest(http.MethodPost, "/api/feedback/submit", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		h.HandleSubmit(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"error":"Invalid project key"}`, rr.Body.String())
	})

	t.Run("malformed JSON body", func(t *testing.T) {
		h := newIngestionFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/api/feedback/submit", bytes.NewBufferString(`{"projectKey":`))
		rr := httptest.NewRecorder()

		h.HandleSubmit(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
