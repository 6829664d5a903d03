package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackpulse/feedback-pulse/internal/auth"
	"github.com/feedbackpulse/feedback-pulse/internal/config"
	"github.com/feedbackpulse/feedback-pulse/internal/model"
	"github.com/feedbackpulse/feedback-pulse/internal/server"
)

const testSecret = "e2e-test-secret-at-least-16-chars"

// newTestServer spins up the full route table over the memory store.
func newTestServer(t *testing.T, seed bool) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Port:      0,
		AppURL:    "http://pulse.test",
		StaticDir: t.TempDir(),
		Store:     "memory",
		JWTSecret: testSecret,
		SeedDemo:  seed,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := server.New(cfg, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

// newSessionClient returns an http.Client with a cookie jar, signed up as
// a fresh user on the given server.
func newSessionClient(t *testing.T, ts *httptest.Server, email string) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	body := fmt.Sprintf(`{"email":%q,"password":"demo123","name":"Test"}`, email)
	resp, err := client.Post(ts.URL+"/api/auth/signup", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return client
}

func doJSON(t *testing.T, client *http.Client, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func TestFullFlow_ProjectToFeedbackToLabels(t *testing.T) {
	ts := newTestServer(t, false)
	client := newSessionClient(t, ts, "owner@example.com")

	// Create a project and capture its key.
	resp, body := doJSON(t, client, http.MethodPost, ts.URL+"/api/projects", `{"name":"My Site"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	project := body["project"].(map[string]any)
	projectID := project["id"].(string)
	projectKey := project["projectKey"].(string)
	assert.True(t, strings.HasPrefix(projectKey, "fp_"))
	assert.EqualValues(t, 0, project["feedbackCount"])

	// A visitor submits feedback through the public endpoint -- no cookie.
	anon := &http.Client{}
	submitBody := fmt.Sprintf(`{"projectKey":%q,"type":"FEATURE","message":"Add dark mode"}`, projectKey)
	resp, body = doJSON(t, anon, http.MethodPost, ts.URL+"/api/feedback/submit", submitBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	feedbackID := body["feedback"].(map[string]any)["id"].(string)

	// The owner sees exactly that item on page 1.
	resp, body = doJSON(t, client, http.MethodGet, ts.URL+"/api/projects/"+projectID+"/feedback?page=1&limit=10", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["feedback"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, string(model.TypeFeature), item["type"])
	assert.Equal(t, "Add dark mode", item["message"])

	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 1, pagination["page"])
	assert.EqualValues(t, 10, pagination["limit"])
	assert.EqualValues(t, 1, pagination["total"])
	assert.EqualValues(t, 1, pagination["totalPages"])

	// Label it, then remove the label.
	resp, body = doJSON(t, client, http.MethodPost, ts.URL+"/api/feedback/"+feedbackID+"/labels", `{"label":"Roadmap"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	labelID := body["label"].(map[string]any)["id"].(string)

	resp, body = doJSON(t, client, http.MethodDelete,
		ts.URL+"/api/feedback/"+feedbackID+"/labels?labelId="+labelID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// Missing labelId is a 400, not a 404.
	resp, _ = doJSON(t, client, http.MethodDelete, ts.URL+"/api/feedback/"+feedbackID+"/labels", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOwnerAPI_RequiresSession(t *testing.T) {
	ts := newTestServer(t, false)
	anon := &http.Client{}

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/projects"},
		{http.MethodPost, "/api/projects"},
		{http.MethodGet, "/api/projects/some-id"},
		{http.MethodDelete, "/api/projects/some-id"},
		{http.MethodPost, "/api/feedback/some-id/labels"},
	} {
		resp, _ := doJSON(t, anon, route.method, ts.URL+route.path, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
	}
}

func TestTenantIsolation(t *testing.T) {
	ts := newTestServer(t, false)
	alice := newSessionClient(t, ts, "alice@example.com")
	mallory := newSessionClient(t, ts, "mallory@example.com")

	resp, body := doJSON(t, alice, http.MethodPost, ts.URL+"/api/projects", `{"name":"Alice's Site"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	projectID := body["project"].(map[string]any)["id"].(string)

	// Every op against someone else's project is a 404 -- never a 403,
	// which would confirm the project exists.
	for _, route := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/projects/" + projectID, ""},
		{http.MethodPatch, "/api/projects/" + projectID, `{"name":"Stolen"}`},
		{http.MethodDelete, "/api/projects/" + projectID, ""},
		{http.MethodGet, "/api/projects/" + projectID + "/feedback", ""},
	} {
		resp, _ := doJSON(t, mallory, route.method, ts.URL+route.path, route.body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "%s %s", route.method, route.path)
	}

	// Mallory's own list stays empty.
	resp, body = doJSON(t, mallory, http.MethodGet, ts.URL+"/api/projects", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["projects"])

	// And Alice's project is untouched.
	resp, body = doJSON(t, alice, http.MethodGet, ts.URL+"/api/projects/"+projectID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Alice's Site", body["project"].(map[string]any)["name"])
}

func TestStaleSession(t *testing.T) {
	ts := newTestServer(t, false)

	// A structurally valid token for a user that was never created: the
	// session outlived the account.
	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)
	staleToken, err := tokens.Generate("no-such-user")
	require.NoError(t, err)

	withCookie := func(method, url, body string) *http.Request {
		var reader io.Reader
		if body != "" {
			reader = bytes.NewBufferString(body)
		}
		req, err := http.NewRequest(method, url, reader)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: staleToken})
		return req
	}

	t.Run("project create maps the FK failure to a 401", func(t *testing.T) {
		resp, err := http.DefaultClient.Do(withCookie(http.MethodPost, ts.URL+"/api/projects", `{"name":"Orphan"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		raw, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(raw), "Invalid user session. Please log in again.")
		assertSessionCleared(t, resp)
	})

	t.Run("me reports the stale session and clears the cookie", func(t *testing.T) {
		resp, err := http.DefaultClient.Do(withCookie(http.MethodGet, ts.URL+"/api/auth/me", ""))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		raw, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(raw), "Invalid session. Please log in again.")
		assertSessionCleared(t, resp)
	})
}

func assertSessionCleared(t *testing.T, resp *http.Response) {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName && c.MaxAge < 0 {
			return
		}
	}
	t.Error("response did not clear the session cookie")
}

func TestIngestionCORSPreflight(t *testing.T) {
	ts := newTestServer(t, false)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/feedback/submit", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://customer-site.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestIngestionBareOptions(t *testing.T) {
	ts := newTestServer(t, false)

	// No Access-Control-Request-Method header, so this is not a preflight
	// and bypasses the cors middleware entirely.
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/feedback/submit", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSeedDemo(t *testing.T) {
	ts := newTestServer(t, true)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.Post(ts.URL+"/api/auth/login", "application/json",
		bytes.NewBufferString(`{"email":"demo@feedbackpulse.com","password":"demo123"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	listResp, body := doJSON(t, client, http.MethodGet, ts.URL+"/api/projects", "")
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	projects := body["projects"].([]any)
	assert.Len(t, projects, 2)

	// Seeded feedback counts show up in the listing.
	var total float64
	for _, p := range projects {
		total += p.(map[string]any)["feedbackCount"].(float64)
	}
	assert.EqualValues(t, 5, total)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t, false)
	newSessionClient(t, ts, "owner@example.com")

	resp, err := http.Post(ts.URL+"/api/auth/login", "application/json",
		bytes.NewBufferString(`{"email":"owner@example.com","password":"wrong"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignup_DuplicateEmailConflict(t *testing.T) {
	ts := newTestServer(t, false)
	newSessionClient(t, ts, "dup@example.com")

	resp, err := http.Post(ts.URL+"/api/auth/signup", "application/json",
		bytes.NewBufferString(`{"email":"dup@example.com","password":"demo123"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
