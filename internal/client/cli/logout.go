package cli

import (
	"context"
	"fmt"

	"github.com/artstore/artstore/internal/client/nav"
)

func (a *App) Logout(ctx context.Context) error {
	a.store.SignOut(ctx)
	a.path = nav.RouteHome
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

// ForceLogout is the escape hatch for a wedged session: it wipes every piece
// of local auth state regardless of backend reachability and drops the user
// at the login view.
func (a *App) ForceLogout(ctx context.Context) error {
	a.store.ForceSignOut(ctx)
	a.path = nav.RouteLogin
	fmt.Fprintln(a.out, "All local auth state cleared.")
	return nil
}

func (a *App) ClearError(ctx context.Context) error {
	a.store.ClearAuthError()
	return nil
}
