package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubUser is the slice of the GitHub /user API response we care about.
type GitHubUser struct {
	ID    int64  `json:"id"`    // GitHub's numeric user ID — stable across renames
	Login string `json:"login"` // GitHub username
	Name  string `json:"name"`  // Display name (may be empty)
	Email string `json:"email"` // Primary email (empty if hidden in settings)
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization
// Code flow: redirect the user to GitHub, receive a short-lived code on
// the callback, exchange it server-to-server for an access token, and
// fetch the profile. The ClientSecret and the access token never reach
// the browser.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a GitHubProvider with the given OAuth App
// credentials. callbackURL must exactly match the authorization callback
// URL registered with GitHub.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// The state is a random string stored in a short-lived cookie before the
// redirect; the callback verifies it matches, which blocks CSRF attempts
// to complete an OAuth flow for someone else's account.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a GitHub user profile.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// config.Client returns an *http.Client that injects the bearer token.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &ghUser, nil
}
