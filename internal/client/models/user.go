// Package models defines the client-side data model: sessions issued by the
// remote auth service, persisted profile records, and the normalized user
// view consumed by the UI layer.
package models

import "strings"

// Role classifies an account. Sellers are artists with a storefront;
// everything that is not a seller gets a buyer-side role profile.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// ParseRole maps arbitrary input onto a known role, defaulting to buyer.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleSeller:
		return RoleSeller
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleBuyer
	}
}

// SignupMetadata is the free-form attribute bag attached to the auth
// identity at registration. The remote service stores it verbatim and
// returns it inside the session.
type SignupMetadata struct {
	UserType  Role   `json:"user_type,omitempty"`
	IsArtist  bool   `json:"is_artist,omitempty"`
	Username  string `json:"username,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// User is the normalized in-memory view merging the session identity with
// the persisted profile records. It is rebuilt wholesale on every session
// change, never patched in place.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username,omitempty"`
	FullName   string `json:"full_name,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	UserType   Role   `json:"user_type"`
	Bio        string `json:"bio,omitempty"`
	Website    string `json:"website,omitempty"`
	IsArtist   bool   `json:"is_artist,omitempty"`
	IsVerified bool   `json:"is_verified,omitempty"`
}

// IsSeller reports whether the user has a seller (artist) account.
func (u *User) IsSeller() bool {
	return u != nil && u.UserType == RoleSeller
}

// UsernameFromEmail derives a default username from the local part of an
// email address, mirroring how the auth service seeds signup metadata.
func UsernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
