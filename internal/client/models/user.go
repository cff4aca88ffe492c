// Package models defines client-side data models shared across the Catus
// client: the authenticated user profile, chat messages and their locally
// persisted records, and the diary artifacts produced by the backend.
package models

// UserProfile is the authenticated user as reported by the backend.
// The in-memory copy owned by the session manager is the authentication
// predicate for the whole client: a nil profile means unauthenticated.
// A JSON-serialized mirror is cached in the credential store for warm restarts.
type UserProfile struct {
	ID           int64  `json:"id"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profileImage,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// UserUpdate carries partial profile fields for an in-place merge.
// Nil fields are left untouched.
type UserUpdate struct {
	Nickname     *string
	ProfileImage *string
}

// Merge applies the non-nil fields of u onto p and returns the result.
func (p UserProfile) Merge(u UserUpdate) UserProfile {
	if u.Nickname != nil {
		p.Nickname = *u.Nickname
	}
	if u.ProfileImage != nil {
		p.ProfileImage = *u.ProfileImage
	}
	return p
}
