package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type for context keys in this package.
// A package-private key type means no other package can read or shadow
// the userID we store in the request context.
type contextKey string

const userIDKey contextKey = "userID"

// CookieName is the session cookie the dashboard and middleware agree on.
const CookieName = "token"

// RequireAuth enforces authentication on owner API routes.
//
// It reads the JWT from the session cookie, validates it, and stores the
// userID in the request context. A missing or invalid token stops the
// chain with a 401. The JSON body matches what the rest of the owner API
// returns for auth failures.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				ClearSessionCookie(w)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) on an anonymous request.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// ContextWithUserID returns a context carrying the given userID.
// Handler tests use it to simulate an authenticated request without
// minting a real token.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// SetSessionCookie writes the session JWT as an HttpOnly cookie.
// HttpOnly keeps the token out of reach of page JavaScript, so an XSS
// bug on the dashboard cannot exfiltrate sessions.
func SetSessionCookie(w http.ResponseWriter, token string, ttlSeconds int) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   ttlSeconds,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie. Used on logout and when
// a request arrives carrying a session for a user that no longer exists.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// extractUserID reads the JWT cookie and validates it.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}

	return tokens.Validate(cookie.Value)
}
