package model

import "time"

// User represents an organizer account.
//
// Accounts come from the external identity provider (GitHub OAuth). The
// provider's numeric id is kept for upserts, while the internal string ID (an
// xid) is what owns events, so our keys never depend on a third party's
// numbering scheme.
//
// DisplayName falls back to Login when the provider profile has no name.
// Email may be empty if the user has hidden it on GitHub.
type User struct {
	ID          string    `json:"id"          db:"id"`
	GitHubID    int64     `json:"githubId"    db:"github_id"`
	Login       string    `json:"login"       db:"login"`
	Email       string    `json:"email"       db:"email"`
	DisplayName string    `json:"displayName" db:"display_name"`
	AvatarURL   string    `json:"avatarUrl"   db:"avatar_url"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}
