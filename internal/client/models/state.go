package models

// AuthState is a snapshot of the process-wide authentication state. Only the
// auth store mutates it; consumers receive copies and decide rendering or
// navigation from them.
type AuthState struct {
	// CurrentUser is nil when no authenticated user is known.
	CurrentUser *User

	// IsLoading is true only while the very first bootstrap is in flight.
	// Later reconciliations do not re-raise it, so a brief re-load never
	// flashes the global spinner.
	IsLoading bool

	// LastError holds the most recent auth failure message, "" when none.
	LastError string
}

// Authenticated reports whether a usable user view is present.
func (s AuthState) Authenticated() bool {
	return s.CurrentUser != nil
}
