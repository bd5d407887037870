package model

import "time"

// User represents a registered account.
//
// Accounts are created either with email+password or via GitHub OAuth.
// GitHubID is zero for password accounts; PasswordHash is empty for OAuth
// accounts. We always generate our own internal string ID (xid) rather than
// tying primary keys to a third-party's numbering scheme.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"`
	GitHubID     int64     `json:"-"         db:"github_id"` // zero for password accounts
	PasswordHash string    `json:"-"         db:"password_hash"`
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	About        string    `json:"about"     db:"about"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Public returns a copy of the user stripped down to the fields safe to
// show on another user's profile or in an expanded author reference.
func (u *User) Public() *User {
	return &User{
		ID:        u.ID,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		About:     u.About,
		CreatedAt: u.CreatedAt,
	}
}
