// Package remote defines the boundary to the hosted auth/data backend and
// its HTTP implementation. The backend issues sessions, emits auth-state
// change events, and stores relational records addressed by table name and
// row id. Expected failures are reported as sentinel errors, never panics.
package remote

import (
	"context"

	"github.com/artstore/artstore/internal/client/models"
)

// Event identifies an auth-state change delivered by the backend client.
// Events are delivered serially, one at a time, in the order they occur.
type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// SignUpResult reports the outcome of registering a new auth identity.
// Session is nil when the backend requires email confirmation before
// issuing one.
type SignUpResult struct {
	UserID  string
	Email   string
	Session *models.Session
}

// Client is the remote auth/data boundary consumed by the reconciler and
// the auth store.
//
// Record operations address a single row: SelectRecord unmarshals the row
// with the given id into dest and returns ErrNoRows when it does not exist;
// InsertRecord and UpdateRecord marshal the given record.
type Client interface {
	Close() error

	// GetSession returns the current session, restoring a persisted one and
	// refreshing it when expired. A nil session with nil error means no
	// session exists.
	GetSession(ctx context.Context) (*models.Session, error)

	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password string, metadata models.SignupMetadata) (*SignUpResult, error)
	SignOut(ctx context.Context) error

	SelectRecord(ctx context.Context, table, id string, dest any) error
	InsertRecord(ctx context.Context, table string, record any) error
	UpdateRecord(ctx context.Context, table, id string, record any) error

	// OnAuthStateChange registers fn for auth events. The returned function
	// unsubscribes it. Callbacks run serially on a dedicated goroutine.
	OnAuthStateChange(fn func(event Event, session *models.Session)) (unsubscribe func())
}

// Record tables exposed by the backend.
const (
	TableProfiles       = "profiles"
	TableSellerProfiles = "seller_profiles"
	TableBuyerProfiles  = "buyer_profiles"
)

// RoleProfileTable selects the role-specific table for a role: sellers get
// the seller table, everyone else the buyer table.
func RoleProfileTable(role models.Role) string {
	if role == models.RoleSeller {
		return TableSellerProfiles
	}
	return TableBuyerProfiles
}
