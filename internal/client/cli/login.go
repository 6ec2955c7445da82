package cli

import (
	"context"
	"fmt"

	"github.com/artstore/artstore/internal/client/nav"
	"github.com/artstore/artstore/internal/common"
)

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	defer common.WipeByteArray(password)

	result, err := a.store.SignIn(ctx, email, string(password))
	if err != nil {
		// The store has already translated the failure for display.
		fmt.Fprintln(a.out, a.store.State().LastError)
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s\n", result.User.Email)

	// Mirror the post-login navigation a browser would perform.
	if redirect := a.redirector.Decide(a.location()); redirect != nil {
		a.follow(redirect)
	}
	return nil
}

func (a *App) location() nav.Location {
	return nav.Location{
		Path:          a.path,
		Authenticated: a.isLoggedIn(),
	}
}
