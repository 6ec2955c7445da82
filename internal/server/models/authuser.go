package models

import "time"

// AuthUser is an auth identity row. Metadata carries the raw JSON the client
// supplied at registration (role, artist flag, username); the server treats
// it as opaque apart from storing and echoing it.
type AuthUser struct {
	ID             string
	Email          string
	PasswordHash   []byte
	EmailConfirmed bool
	Metadata       []byte
	CreatedAt      time.Time
}
