package models

import "time"

// RefreshToken is a server-stored opaque token that can be exchanged for a
// new session exactly once; exchange rotates it.
type RefreshToken struct {
	UserID  string
	Expires time.Time
}
