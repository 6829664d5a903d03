package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/feedbackpulse/feedback-pulse/internal/apperror"
	"github.com/feedbackpulse/feedback-pulse/internal/service"
)

// WidgetHandler serves the two widget endpoints: the embed bootstrapper
// (a tiny generated script site owners paste into their pages) and the
// widget runtime itself (a static file). Both are public, CORS-open, and
// cacheable; neither ever throws into the host page.
type WidgetHandler struct {
	projects  *service.ProjectService
	appURL    string
	staticDir string
	logger    *slog.Logger
}

func NewWidgetHandler(projects *service.ProjectService, appURL, staticDir string, logger *slog.Logger) *WidgetHandler {
	return &WidgetHandler{
		projects:  projects,
		appURL:    appURL,
		staticDir: staticDir,
		logger:    logger,
	}
}

// HandleEmbed returns the bootstrapper for a project key.
//
// HTTP: GET /widget/embed?key=fp_xxx
//
// Failure modes are deliberately soft: the response body is always
// JavaScript, so a bad key degrades to a console.error on the host page
// instead of a broken <script> tag. A store failure during validation
// serves the script anyway — an outage on our side should not dereference
// into every customer's page.
func (h *WidgetHandler) HandleEmbed(w http.ResponseWriter, r *http.Request) {
	widgetHeaders(w)

	key := r.URL.Query().Get("key")
	if key == "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `console.error("Feedback Pulse: missing project key in embed URL");`)
		return
	}

	if _, err := h.projects.LookupByKey(r.Context(), key); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `console.error("Feedback Pulse: unknown project key");`)
			return
		}
		// Store trouble: log it and fall through to serving the script.
		h.logger.Error("embed key validation failed", slog.String("error", err.Error()))
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, embedScript(h.appURL, key))
}

// HandleScript serves the widget runtime from disk.
//
// HTTP: GET /widget/feedback.js
func (h *WidgetHandler) HandleScript(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.staticDir, "widget", "feedback.js")

	data, err := os.ReadFile(path)
	if err != nil {
		h.logger.Error("widget runtime missing", slog.String("path", path))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "Widget not found")
		return
	}

	widgetHeaders(w)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func widgetHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "public, max-age=3600")
}

// embedScript builds the bootstrapper. The data-project-key attribute is
// set before src on purpose: the runtime reads its config off its own
// script element, and the attribute has to be there before the browser
// starts fetching. If the document is still parsing, injection waits for
// DOMContentLoaded so document.body exists.
func embedScript(appURL, projectKey string) string {
	return fmt.Sprintf(`(function() {
  if (document.getElementById('feedback-pulse-script')) return;
  function inject() {
    var s = document.createElement('script');
    s.id = 'feedback-pulse-script';
    s.setAttribute('data-project-key', %q);
    s.async = true;
    s.src = %q;
    document.body.appendChild(s);
  }
  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', inject);
  } else {
    inject();
  }
})();`, projectKey, appURL+"/widget/feedback.js")
}
