package remote

import "errors"

var (
	// ErrNoRows is the distinguished "row not found" code. It is the only
	// record error callers may treat as "create the row".
	ErrNoRows = errors.New("no rows found")

	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUnavailable        = errors.New("backend unavailable")
	ErrNoSession          = errors.New("no active session")
)
