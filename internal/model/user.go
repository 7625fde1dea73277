// Package model defines the data structures used throughout the application.
package model

import (
	"strings"
	"time"
)

// Role is the authorization level of a user account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// PlaceholderEmailDomain marks an email address that was never confirmed by
// Discord. Logins overwrite such addresses with the one Discord reports, and
// never overwrite anything else.
const PlaceholderEmailDomain = "@example.com"

// User represents a registered user account.
//
// Accounts are keyed internally by a numeric id. DiscordID is the stable
// external identifier; it is unique and never changes once written.
//
// WHY AvatarURL *string?
// Discord users without a custom avatar have no avatar hash, so the column is
// nullable. A nil pointer marshals to JSON null, which is what clients expect.
type User struct {
	ID        int64     `json:"id"        db:"id"`
	DiscordID string    `json:"discordId" db:"discord_id"`
	Username  string    `json:"username"  db:"username"`
	Email     string    `json:"email"     db:"email"`
	AvatarURL *string   `json:"avatarUrl" db:"avatar_url"`
	Role      Role      `json:"role"      db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	LastLogin time.Time `json:"lastLogin" db:"last_login"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasPlaceholderEmail reports whether the stored email is still the
// placeholder written when Discord did not supply one.
func (u *User) HasPlaceholderEmail() bool {
	return strings.HasSuffix(strings.ToLower(u.Email), PlaceholderEmailDomain)
}

// Public returns the redacted projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// PublicUser is the redacted projection of a User that is safe to show to
// anyone other than the account owner.
//
// REDACTION BY TYPE:
// Email, DiscordID and LastLogin are not fields of this struct at all, so no
// handler can leak them by forgetting to blank a field before encoding.
type PublicUser struct {
	ID        int64     `json:"id"        db:"id"`
	Username  string    `json:"username"  db:"username"`
	AvatarURL *string   `json:"avatarUrl" db:"avatar_url"`
	Role      Role      `json:"role"      db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// UserStats is the public activity summary of one user.
type UserStats struct {
	User         PublicUser `json:"user"`
	FindsCount   int64      `json:"findsCount"`
	ReviewsCount int64      `json:"reviewsCount"`
	ListsCount   int64      `json:"listsCount"`
}
