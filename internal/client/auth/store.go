// Package auth owns the process-wide authentication state: it bootstraps a
// session on startup, reacts to auth events from the backend, and exposes
// the imperative actions behind the sign-in, sign-up and sign-out flows.
//
// AuthState is mutated only by the store's own handlers, through a single
// reducer-style transition function. Consumers read snapshots via State()
// and never write. Every transition replaces the whole user view, so an
// auth event interleaving with an in-flight action resolves to "last write
// wins" rather than a half-patched state.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/artstore/artstore/internal/client/models"
	"github.com/artstore/artstore/internal/client/profile"
	"github.com/artstore/artstore/internal/client/remote"
	"github.com/artstore/artstore/internal/logging"
)

// LocalState is the subset of the persisted key/value store the auth store
// needs: all-or-nothing wipes on sign-out and on detected auth errors.
type LocalState interface {
	Clear(ctx context.Context) error
}

// Options tune the store's timers and retry budgets.
type Options struct {
	// BootstrapTimeout bounds the whole bootstrap sequence. One deadline
	// covers session fetch and reconciliation; it is cancelled on natural
	// completion.
	BootstrapTimeout time.Duration

	// SignUpRetries and SignUpRetryDelay bound the wait for server-side
	// profile provisioning after registration.
	SignUpRetries    uint64
	SignUpRetryDelay time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.BootstrapTimeout <= 0 {
		out.BootstrapTimeout = 5 * time.Second
	}
	if out.SignUpRetries == 0 {
		out.SignUpRetries = 3
	}
	if out.SignUpRetryDelay <= 0 {
		out.SignUpRetryDelay = time.Second
	}
	return out
}

// Store is the auth state machine.
type Store struct {
	client     remote.Client
	reconciler *profile.Reconciler
	local      LocalState
	logger     logging.Logger
	opts       Options

	mu          sync.Mutex
	state       models.AuthState // IsLoading here is the raw flag
	initialized bool

	bootstrapOnce sync.Once
	unsubscribe   func()
}

func NewStore(client remote.Client, reconciler *profile.Reconciler, local LocalState, logger logging.Logger, opts Options) *Store {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Store{
		client:     client,
		reconciler: reconciler,
		local:      local,
		logger:     logger,
		opts:       opts.withDefaults(),
	}
}

// dispatch runs a state transition under the store lock. It is the only
// place AuthState is written.
func (s *Store) dispatch(mutate func(state *models.AuthState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.state)
}

// State returns a snapshot. The reported IsLoading is raw-loading AND
// not-yet-initialized: only the very first bootstrap shows the global
// spinner, later reconciliations never flash it.
func (s *Store) State() models.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.state
	snapshot.IsLoading = s.state.IsLoading && !s.initialized
	if s.state.CurrentUser != nil {
		user := *s.state.CurrentUser
		snapshot.CurrentUser = &user
	}
	return snapshot
}

// CurrentUser is a convenience accessor for the snapshot's user.
func (s *Store) CurrentUser() *models.User {
	return s.State().CurrentUser
}

// Bootstrap establishes initial auth state: restore the session, reconcile
// the profile, then subscribe to auth events. It runs at most once per
// process; repeat calls are no-ops. The whole sequence is bounded by one
// cancellable deadline so a hung backend cannot leave the UI loading
// forever.
func (s *Store) Bootstrap(ctx context.Context) {
	s.bootstrapOnce.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, s.opts.BootstrapTimeout)
		defer cancel()

		s.dispatch(func(state *models.AuthState) {
			state.IsLoading = true
			state.LastError = ""
		})

		defer func() {
			s.mu.Lock()
			s.state.IsLoading = false
			s.initialized = true
			s.mu.Unlock()
			s.logger.Info(ctx, "auth bootstrap complete")
		}()

		session, err := s.client.GetSession(ctx)
		if err != nil {
			s.logger.Error(ctx, "session restore failed", "error", err)
			s.clearLocal(ctx)
			s.dispatch(func(state *models.AuthState) {
				state.CurrentUser = nil
				state.LastError = err.Error()
			})
			return
		}

		if session == nil {
			s.dispatch(func(state *models.AuthState) { state.CurrentUser = nil })
			return
		}

		user := s.reconciler.Reconcile(ctx, session)
		s.dispatch(func(state *models.AuthState) { state.CurrentUser = user })
	})

	s.mu.Lock()
	subscribed := s.unsubscribe != nil
	s.mu.Unlock()
	if !subscribed {
		unsub := s.client.OnAuthStateChange(s.handleAuthEvent)
		s.mu.Lock()
		s.unsubscribe = unsub
		s.mu.Unlock()
	}
}

// Close detaches the store from the backend's event stream.
func (s *Store) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// handleAuthEvent reacts to asynchronous auth events. Events arrive one at
// a time; each handler replaces the user view wholesale.
func (s *Store) handleAuthEvent(event remote.Event, session *models.Session) {
	ctx := context.Background()
	s.logger.Debug(ctx, "auth event", "event", string(event))

	switch event {
	case remote.EventSignedOut:
		s.clearLocal(ctx)
		s.dispatch(func(state *models.AuthState) {
			state.CurrentUser = nil
			state.IsLoading = false
		})

	case remote.EventSignedIn, remote.EventTokenRefreshed:
		if session == nil {
			return
		}
		s.dispatch(func(state *models.AuthState) { state.IsLoading = true })
		user := s.reconciler.Reconcile(ctx, session)
		s.dispatch(func(state *models.AuthState) {
			state.CurrentUser = user
			state.IsLoading = false
		})
	}
}

// SignInResult reports a successful sign-in.
type SignInResult struct {
	Session *models.Session
	User    *models.User
}

// SignIn exchanges credentials for a session and reconciles the profile.
// Failures come back as values, never panics, so forms can render inline
// messages; ErrorMessage distinguishes bad credentials from an unconfirmed
// email. Concurrent calls are not deduplicated: the last one to resolve
// owns the final user view.
func (s *Store) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	// Wipe cached keys first so nothing from a previous account bleeds
	// into the new session. The in-memory user stays until the outcome is
	// known.
	s.clearLocal(ctx)
	s.dispatch(func(state *models.AuthState) { state.LastError = "" })

	session, err := s.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		msg := ErrorMessage(err)
		s.logger.Warn(ctx, "sign-in failed", "email", email, "error", err)
		s.dispatch(func(state *models.AuthState) { state.LastError = msg })
		return nil, err
	}

	user := s.reconciler.Reconcile(ctx, session)
	s.dispatch(func(state *models.AuthState) {
		state.CurrentUser = user
		state.LastError = ""
	})

	return &SignInResult{Session: session, User: user}, nil
}

// SignUpResult reports the outcome of a registration.
type SignUpResult struct {
	UserID string
	Email  string
	User   *models.User

	// RequiresVerification is true when the backend issued no session and
	// the user must confirm their email before signing in.
	RequiresVerification bool
}

// SignUp registers a new identity with role metadata, waits (bounded) for
// the backend to provision the base profile, and ensures the role profile
// exists. When email confirmation is pending the current user is left
// untouched.
func (s *Store) SignUp(ctx context.Context, email, password string, role models.Role) (*SignUpResult, error) {
	role = models.ParseRole(string(role))
	metadata := models.SignupMetadata{
		UserType: role,
		IsArtist: role == models.RoleSeller,
		Username: models.UsernameFromEmail(email),
	}

	created, err := s.client.SignUp(ctx, email, password, metadata)
	if err != nil {
		msg := ErrorMessage(err)
		s.logger.Warn(ctx, "sign-up failed", "email", email, "error", err)
		s.dispatch(func(state *models.AuthState) { state.LastError = msg })
		return nil, err
	}

	base, err := s.awaitBaseProfile(ctx, created.UserID)
	if err != nil {
		return nil, fmt.Errorf("profile was not provisioned: %w", err)
	}

	effective := role
	if base.UserType != "" {
		effective = models.ParseRole(string(base.UserType))
	}
	if err := s.reconciler.EnsureRoleProfile(ctx, created.UserID, effective); err != nil {
		return nil, err
	}

	result := &SignUpResult{UserID: created.UserID, Email: created.Email}

	if created.Session == nil {
		result.RequiresVerification = true
		return result, nil
	}

	user := s.reconciler.Reconcile(ctx, created.Session)
	s.dispatch(func(state *models.AuthState) {
		state.CurrentUser = user
		state.LastError = ""
	})
	result.User = user
	return result, nil
}

// awaitBaseProfile polls for the base profile the backend provisions
// asynchronously after registration, with a bounded fixed-delay budget.
func (s *Store) awaitBaseProfile(ctx context.Context, userID string) (*models.BaseProfile, error) {
	var base models.BaseProfile

	backoff := retry.WithMaxRetries(s.opts.SignUpRetries, retry.NewConstant(s.opts.SignUpRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.client.SelectRecord(ctx, remote.TableProfiles, userID, &base); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &base, nil
}

// SignOut is best effort: local state is wiped and the user view cleared no
// matter what the backend says. A failed network call must never leave the
// UI showing a stale authenticated user.
func (s *Store) SignOut(ctx context.Context) {
	s.clearLocal(ctx)

	if err := s.client.SignOut(ctx); err != nil {
		s.logger.Warn(ctx, "remote sign-out failed, local state cleared anyway", "error", err)
	}

	s.dispatch(func(state *models.AuthState) {
		state.CurrentUser = nil
		state.IsLoading = false
	})
}

// ForceSignOut is the /force-logout escape hatch: wipe everything locally,
// fire the remote logout, and ignore every outcome. The caller navigates to
// the login view afterwards regardless.
func (s *Store) ForceSignOut(ctx context.Context) {
	s.clearLocal(ctx)
	_ = s.client.SignOut(ctx)
	s.dispatch(func(state *models.AuthState) {
		state.CurrentUser = nil
		state.IsLoading = false
		state.LastError = ""
	})
	s.logger.Info(ctx, "forced sign-out complete")
}

// ClearAuthError clears the last error only.
func (s *Store) ClearAuthError() {
	s.dispatch(func(state *models.AuthState) { state.LastError = "" })
}

func (s *Store) clearLocal(ctx context.Context) {
	if s.local == nil {
		return
	}
	if err := s.local.Clear(ctx); err != nil {
		s.logger.Warn(ctx, "failed to clear local state", "error", err)
	}
}

// ErrorMessage maps an auth failure to the human-readable message shown
// inline by forms. Invalid credentials and an unconfirmed email must stay
// distinguishable.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, remote.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, remote.ErrEmailNotConfirmed):
		return "Please confirm your email address before signing in."
	case errors.Is(err, remote.ErrUnavailable):
		return "The server is unreachable. Please try again."
	case err != nil:
		return err.Error()
	default:
		return ""
	}
}
