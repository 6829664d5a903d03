// Package auth provides session tokens, password hashing, and the GitHub
// OAuth flow for the owner API.
//
// SESSION FLOW:
// 1. A user signs up or logs in (email/password or GitHub OAuth)
// 2. The server issues a signed JWT and stores it in an HttpOnly cookie
// 3. On later requests, middleware reads the cookie, validates the JWT,
//    and puts the userID in the request context
//
// The token is stateless: everything needed to authenticate a request
// (userID, expiry) is inside the signed payload, so validation never
// touches the database. The flip side is that a token can outlive its
// user — deleting an account does not revoke outstanding cookies. The
// project service catches that case when a stale session tries to write.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "feedback-pulse"

// sessionTTL is how long an issued session cookie stays valid.
// Seven days keeps dashboard users logged in across a work week without
// a refresh-token dance.
const sessionTTL = 7 * 24 * time.Hour

// TokenService signs and verifies session JWTs with an HMAC secret.
// The same secret is used for both directions, so every instance of the
// server must share it.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production,
// e.g. JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims embeds jwt.RegisteredClaims; the internal user ID travels in the
// standard "sub" (Subject) claim.
type claims struct {
	jwt.RegisteredClaims
}

// SessionTTL reports the configured session lifetime, so the handler layer
// can set a matching Max-Age on the cookie.
func (s *TokenService) SessionTTL() time.Duration { return sessionTTL }

// Generate creates and signs a session token for the given userID.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, sessionTTL)
}

// GenerateWithDuration creates a token with a custom expiry.
// Exported mainly so tests can mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the userID from
// the "sub" claim.
//
// The jwt library checks the signature, expiry, and issuer for us.
// Pinning the algorithm with WithValidMethods blocks algorithm-confusion
// attacks where an attacker submits a token claiming alg "none".
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
