package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	state := a.store.State()
	switch {
	case state.IsLoading:
		return "(loading)"
	case state.CurrentUser != nil:
		return fmt.Sprintf("(%s %s)", state.CurrentUser.Email, a.path)
	default:
		return fmt.Sprintf("(%s)", a.path)
	}
}

// Root prints the banner and runs the command loop over stdin.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to the artstore client (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
