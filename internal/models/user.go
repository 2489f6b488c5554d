package models

import "time"

// User is an authenticated account on the companion service.
type User struct {
	ID           string
	Email        string
	Username     string
	AvatarRef    string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is what the client core needs to act on behalf of a player: a
// stable id plus a bearer token, or the anonymous zero value.
type Identity struct {
	UserID      string
	Username    string
	AccessToken string
}

// Anonymous reports whether the identity carries no authenticated user.
func (id Identity) Anonymous() bool {
	return id.UserID == "" || id.AccessToken == ""
}

// UserScope returns the storage namespace for the identity: the user id
// when authenticated, otherwise a stable device-local id.
func (id Identity) UserScope(deviceID string) string {
	if id.Anonymous() {
		return "anon:" + deviceID
	}
	return id.UserID
}
