// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account that can own projects.
//
// Users sign up with email/password or through GitHub OAuth. Either way we
// generate our own internal string ID (xid) so primary keys never depend on a
// third-party's numbering scheme.
//
// WHY PasswordHash AND GitHubID TOGETHER?
// A user created via GitHub OAuth has no password (PasswordHash is empty and
// login only works through OAuth). A user created via signup has PasswordHash
// set and GitHubID zero. Both fields live on the same struct because an
// account is one row regardless of how it authenticates.
//
// PasswordHash is tagged `json:"-"` so it can NEVER leak into an API response,
// no matter which handler serializes the user.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"` // unique across the system
	Name         string    `json:"name"      db:"name"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     int64     `json:"-"         db:"github_id"` // 0 when the account never linked GitHub
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
