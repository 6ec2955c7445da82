package models

import "time"

// Session is the token bundle issued by the remote auth service. The tokens
// are opaque to the client apart from the subject identity and expiry, which
// the service exposes alongside them.
type Session struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresAt    time.Time      `json:"expires_at"`
	UserID       string         `json:"user_id"`
	Email        string         `json:"email"`
	Metadata     SignupMetadata `json:"metadata"`
}

// Expired reports whether the access token is past its expiry at time now.
// A session with no recorded expiry is treated as live.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// MetadataRole returns the role requested at registration, defaulting to
// buyer when the metadata carries none.
func (s *Session) MetadataRole() Role {
	if s.Metadata.UserType == "" {
		return RoleBuyer
	}
	return ParseRole(string(s.Metadata.UserType))
}
