package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/artstore/artstore/internal/client/models"
	"github.com/artstore/artstore/internal/client/profile"
	"github.com/artstore/artstore/internal/client/remote"
	"github.com/artstore/artstore/internal/client/remote/remotetest"
)

type fakeLocal struct {
	clears int
	err    error
}

func (f *fakeLocal) Clear(ctx context.Context) error {
	f.clears++
	return f.err
}

func newTestStore(fc *remotetest.FakeClient) (*Store, *fakeLocal) {
	local := &fakeLocal{}
	store := NewStore(fc, profile.NewReconciler(fc, nil), local, nil, Options{
		BootstrapTimeout: time.Second,
		SignUpRetries:    2,
		SignUpRetryDelay: time.Millisecond,
	})
	return store, local
}

func session(userID, email string, role models.Role) *models.Session {
	return &models.Session{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(time.Hour),
		UserID:       userID,
		Email:        email,
		Metadata: models.SignupMetadata{
			UserType: role,
			IsArtist: role == models.RoleSeller,
		},
	}
}

func TestBootstrap_NoSession(t *testing.T) {
	fc := remotetest.NewFakeClient()
	store, _ := newTestStore(fc)

	store.Bootstrap(context.Background())

	state := store.State()
	require.Nil(t, state.CurrentUser)
	require.False(t, state.IsLoading)
	require.Empty(t, state.LastError)
	require.False(t, state.Authenticated())
}

func TestBootstrap_RestoresSessionAndReconciles(t *testing.T) {
	fc := remotetest.NewFakeClient()
	fc.Session = session("u1", "alice@example.com", models.RoleSeller)
	store, _ := newTestStore(fc)

	store.Bootstrap(context.Background())

	state := store.State()
	require.NotNil(t, state.CurrentUser)
	require.Equal(t, "u1", state.CurrentUser.ID)
	require.Equal(t, models.RoleSeller, state.CurrentUser.UserType)
	require.False(t, state.IsLoading)
	require.Equal(t, 1, fc.Rows(remote.TableProfiles), "missing profiles are provisioned during bootstrap")
}

func TestBootstrap_SessionRestoreError(t *testing.T) {
	fc := remotetest.NewFakeClient()
	fc.GetSessionErr = errors.New("token rejected")
	store, local := newTestStore(fc)

	store.Bootstrap(context.Background())

	state := store.State()
	require.Nil(t, state.CurrentUser)
	require.False(t, state.IsLoading, "a failed restore must still finish loading")
	require.Contains(t, state.LastError, "token rejected")
	require.Equal(t, 1, local.clears, "stale local state is wiped when the session is unusable")
}

func TestBootstrap_RunsOnce(t *testing.T) {
	fc := remotetest.NewFakeClient()
	fc.Session = session("u1", "alice@example.com", models.RoleBuyer)
	store, _ := newTestStore(fc)

	store.Bootstrap(context.Background())
	fc.GetSessionErr = errors.New("must not be called again")
	store.Bootstrap(context.Background())

	state := store.State()
	require.NotNil(t, state.CurrentUser)
	require.Empty(t, state.LastError)
}

func TestAuthEvents_SignedOutClearsEverything(t *testing.T) {
	fc := remotetest.NewFakeClient()
	fc.Session = session("u1", "alice@example.com", models.RoleBuyer)
	store, local := newTestStore(fc)
	store.Bootstrap(context.Background())
	require.NotNil(t, store.CurrentUser())

	localClearsBefore := local.clears
	fc.Emit(remote.EventSignedOut, nil)

	require.Nil(t, store.CurrentUser())
	require.Equal(t, localClearsBefore+1, local.clears)
}

func TestAuthEvents_SignedInReplacesUser(t *testing.T) {
	fc := remotetest.NewFakeClient()
	store, _ := newTestStore(fc)
	store.Bootstrap(context.Background())
	require.Nil(t, store.CurrentUser())

	fc.Emit(remote.EventSignedIn, session("u2", "bob@example.com", models.RoleBuyer))

	state := store.State()
	require.NotNil(t, state.CurrentUser)
	require.Equal(t, "u2", state.CurrentUser.ID)
	require.False(t, state.IsLoading, "post-bootstrap reconciliation must not re-show the global spinner")
}

func TestAuthEvents_TokenRefreshKeepsUser(t *testing.T) {
	fc := remotetest.NewFakeClient()
	fc.Session = session("u1", "alice@example.com", models.RoleSeller)
	store, _ := newTestStore(fc)
	store.Bootstrap(context.Background())

	fc.Emit(remote.EventTokenRefreshed, session("u1", "alice@example.com", models.RoleSeller))

	user := store.CurrentUser()
	require.NotNil(t, user)
	require.Equal(t, "u1", user.ID)
	require.Equal(t, 1, fc.InsertCalls[remote.TableProfiles], "refresh must not duplicate profiles")
}

func TestSignIn_Success(t *testing.T) {
	fc := remotetest.NewFakeClient()
	store, local := newTestStore(fc)
	store.Bootstrap(context.Background())

	result, err := store.SignIn(context.Background(), "alice@example.com", "secret")

	require.NoError(t, err)
	require.NotNil(t, result.Session)
	require.NotNil(t, result.User)
	require.Equal(t, "alice@example.com", result.User.Email)
	require.Equal(t, result.User, store.CurrentUser())
	require.GreaterOrEqual(t, local.clears, 1, "cached keys are wiped before a new sign-in")
}

func TestSignIn_RapidSuccession_LastWinsNoDuplicates(t *testing.T) {
	fc := remotetest.NewFakeClient()
	store, _ := newTestStore(fc)
	store.Bootstrap(context.Background())

	_, err := store.SignIn(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)
	result, err := store.SignIn(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)

	// The state reflects whichever attempt resolved last, wholesale.
	require.Equal(t, result.User, store.CurrentUser())
	require.Equal(t, "alice@example.com", store.CurrentUser().Email)

	// Reconciling the same user twice must not duplicate profile rows.
	require.Equal(t, 1, fc.Rows(remote.TableProfiles))
	require.Equal(t, 1, fc.Rows(remote.TableBuyerProfiles))
	require.Equal(t, 1, fc.InsertCalls[remote.TableProfiles])
	require.Equal(t, 1, fc.InsertCalls[remote.TableBuyerProfiles])
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	fc := remotetest.NewFakeClient()
	store, _ := newTestStore(fc)
	store.Bootstrap(context.Background())

	// Establish a signed-in user, then fail the next attempt.
	_, err := store.SignIn(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)
	before := store.CurrentUser()
	require.NotNil(t, before)

	fc.SignInFn = func(ctx context.Context, email, password string) (*models.Session, error) {
		return nil, remote.ErrInvalidCredentials
	}
	_, err = store.SignIn(context.Background(), "alice@example.com", "wrong")

	require.ErrorIs(t, err, remote.ErrInvalidCredentials)
	state := store.State()
	require.Equal(t, "Invalid email or password.", state.LastError)
	require.Equal(t, before, state.CurrentUser, "a failed attempt leaves the current user untouched")
}

func TestSignIn_EmailNotConfirmed_DistinctMessage(t *testing.T) {
	fc := remotetest.NewFakeClient()
	fc.SignInErr = remote.ErrEmailNotConfirmed
	store, _ := newTestStore(fc)
	store.Bootstrap(context.Background())

	_, err := store.SignIn(context.Background(), "alice@example.com", "secret")

	require.ErrorIs(t, err, remote.ErrEmailNotConfirmed)
	msg := store.State().LastError
	require.Contains(t, msg, "confirm your email")
	require.NotEqual(t, ErrorMessage(remote.ErrInvalidCredentials), msg)
}

func TestSignUp_SellerProvisionsRoleProfile(t *testing.T) {
	fc := remotetest.NewFakeClient()
	// The backend provisions the base profile out of band; model that with a
	// pre-seeded row keyed by the id the fake will assign.
	fc.Seed(remote.TableProfiles, "user-new", models.BaseProfile{
		ID: "user-new", Username: "new", UserType: models.RoleSeller, IsArtist: true,
	})
	store, _ := newTestStore(fc)
	store.Bootstrap(context.Background())

	result, err := store.SignUp(context.Background(), "new@example.com", "secret", models.RoleSeller)

	require.NoError(t, err)
	require.False(t, result.RequiresVerification)
	require.NotNil(t, result.User)
	require.True(t, result.User.IsSeller())
	require.Equal(t, 1, fc.Rows(remote.TableSellerProfiles))
	require.Equal(t, 0, fc.Rows(remote.TableBuyerProfiles))
	require.Equal(t, result.User, store.CurrentUser())
}

func TestSignUp_RequiresVerification_LeavesUserUnset(t *testing.T) {
	fc := remotetest.NewFakeClient()
	fc.RequireVerification = true
	fc.Seed(remote.TableProfiles, "user-new", models.BaseProfile{
		ID: "user-new", UserType: models.RoleBuyer,
	})
	store, _ := newTestStore(fc)
	store.Bootstrap(context.Background())

	result, err := store.SignUp(context.Background(), "new@example.com", "secret", models.RoleBuyer)

	require.NoError(t, err)
	require.True(t, result.RequiresVerification)
	require.Nil(t, result.User)
	require.Nil(t, store.CurrentUser(), "no session yet means no signed-in user")
	require.Equal(t, 1, fc.Rows(remote.TableBuyerProfiles), "the role profile is still ensured")
}

func TestSignUp_ProfileNeverProvisioned_FailsInsteadOfHanging(t *testing.T) {
	fc := remotetest.NewFakeClient()
	store, _ := newTestStore(fc)
	store.Bootstrap(context.Background())

	start := time.Now()
	_, err := store.SignUp(context.Background(), "new@example.com", "secret", models.RoleBuyer)

	require.Error(t, err)
	require.Contains(t, err.Error(), "not provisioned")
	require.Less(t, time.Since(start), time.Second, "the polling budget is bounded")
}

func TestSignUp_RoleProfileCreateFails(t *testing.T) {
	fc := remotetest.NewFakeClient()
	fc.Seed(remote.TableProfiles, "user-new", models.BaseProfile{
		ID: "user-new", UserType: models.RoleSeller,
	})
	fc.InsertErrs[remote.TableSellerProfiles] = errors.New("insert denied")
	store, _ := newTestStore(fc)
	store.Bootstrap(context.Background())

	_, err := store.SignUp(context.Background(), "new@example.com", "secret", models.RoleSeller)
	require.Error(t, err)
}

func TestSignOut_ClearsUserEvenWhenRemoteFails(t *testing.T) {
	fc := remotetest.NewFakeClient()
	store, local := newTestStore(fc)
	store.Bootstrap(context.Background())
	_, err := store.SignIn(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)

	fc.SignOutErr = errors.New("network down")
	localClearsBefore := local.clears
	store.SignOut(context.Background())

	require.Nil(t, store.CurrentUser())
	require.Equal(t, localClearsBefore+1, local.clears)
}

func TestForceSignOut_WipesStateAndError(t *testing.T) {
	fc := remotetest.NewFakeClient()
	fc.SignInErr = remote.ErrInvalidCredentials
	store, local := newTestStore(fc)
	store.Bootstrap(context.Background())

	_, _ = store.SignIn(context.Background(), "alice@example.com", "wrong")
	require.NotEmpty(t, store.State().LastError)

	fc.SignOutErr = errors.New("network down")
	store.ForceSignOut(context.Background())

	state := store.State()
	require.Nil(t, state.CurrentUser)
	require.Empty(t, state.LastError)
	require.GreaterOrEqual(t, local.clears, 2)
}

func TestClearAuthError(t *testing.T) {
	fc := remotetest.NewFakeClient()
	fc.SignInErr = remote.ErrInvalidCredentials
	store, _ := newTestStore(fc)
	store.Bootstrap(context.Background())

	_, _ = store.SignIn(context.Background(), "alice@example.com", "wrong")
	require.NotEmpty(t, store.State().LastError)

	store.ClearAuthError()
	require.Empty(t, store.State().LastError)
}

func TestClose_Unsubscribes(t *testing.T) {
	fc := remotetest.NewFakeClient()
	store, _ := newTestStore(fc)
	store.Bootstrap(context.Background())

	fc.Emit(remote.EventSignedIn, session("u1", "alice@example.com", models.RoleBuyer))
	require.NotNil(t, store.CurrentUser())

	store.Close()
	fc.Emit(remote.EventSignedOut, nil)

	require.NotNil(t, store.CurrentUser(), "events after Close must be ignored")
}
