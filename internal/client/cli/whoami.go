package cli

import (
	"context"
	"fmt"
)

func (a *App) WhoAmI(ctx context.Context) error {
	state := a.store.State()
	if state.CurrentUser == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		if state.LastError != "" {
			fmt.Fprintf(a.out, "Last error: %s\n", state.LastError)
		}
		return nil
	}

	u := state.CurrentUser
	fmt.Fprintf(a.out, "id:        %s\n", u.ID)
	fmt.Fprintf(a.out, "email:     %s\n", u.Email)
	fmt.Fprintf(a.out, "username:  %s\n", u.Username)
	if u.FullName != "" {
		fmt.Fprintf(a.out, "full name: %s\n", u.FullName)
	}
	fmt.Fprintf(a.out, "role:      %s\n", u.UserType)
	if u.IsArtist {
		fmt.Fprintln(a.out, "artist:    yes")
	}
	if u.IsVerified {
		fmt.Fprintln(a.out, "verified:  yes")
	}
	return nil
}
