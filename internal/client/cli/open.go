package cli

import (
	"context"
	"fmt"
	"net/url"

	"github.com/artstore/artstore/internal/client/nav"
)

// Open navigates to rawURL the way a browser would: the redirect
// orchestrator inspects the fragment and query first, then the route guard
// decides whether the destination renders, shows the loading placeholder, or
// bounces to login.
func (a *App) Open(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		fmt.Fprintf(a.out, "Bad URL: %v\n", err)
		return err
	}
	path := parsed.Path
	if path == "" {
		path = nav.RouteHome
	}

	loc := nav.Location{
		Path:          path,
		Fragment:      parsed.Fragment,
		Query:         parsed.RawQuery,
		Authenticated: a.isLoggedIn(),
	}
	if redirect := a.redirector.Decide(loc); redirect != nil {
		a.follow(redirect)
		return nil
	}

	decision := a.guard.Decide(a.store.State(), path)
	switch decision.Action {
	case nav.ActionRender:
		a.path = path
		fmt.Fprintf(a.out, "Now at %s\n", a.path)
	case nav.ActionPlaceholder:
		fmt.Fprintln(a.out, "Loading...")
	case nav.ActionRedirectLogin:
		a.path = nav.RouteLogin
		fmt.Fprintf(a.out, "Please log in to view %s (redirected to %s)\n", decision.Origin, a.path)
	}
	return nil
}

// follow applies a redirect decision and announces it.
func (a *App) follow(redirect *nav.Redirect) {
	target, err := url.Parse(redirect.Path)
	if err != nil {
		a.path = redirect.Path
	} else {
		a.path = target.Path
		switch {
		case target.Query().Get("verified") == "true":
			fmt.Fprintln(a.out, "Email verified. You can log in now.")
		case target.Query().Get("verification_failed") == "true":
			fmt.Fprintln(a.out, "The verification link expired. Request a new one.")
		}
	}
	fmt.Fprintf(a.out, "Now at %s\n", a.path)
}
