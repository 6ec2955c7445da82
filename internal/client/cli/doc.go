// Package cli implements the interactive artstore client shell.
//
// The shell is a plain read–eval–print loop over stdin. It wires the auth
// store, the route guard and the redirect orchestrator together the same way
// a view layer would: commands call store actions, navigation runs through
// the guard, and URL changes (the "open" command) run through the redirect
// orchestrator before anything is shown.
//
// Commands
//
//	Not signed in:
//	  - help           — show available commands
//	  - register       — create an account (buyer or seller)
//	  - login          — authenticate
//	  - open <url>     — navigate to a route
//	  - exit | quit    — leave the program
//
//	Signed in:
//	  - help           — show available commands
//	  - whoami         — show the current user view
//	  - open <url>     — navigate to a route
//	  - logout         — sign out
//	  - forcelogout    — wipe all local auth state unconditionally
//	  - clearerr       — clear the last auth error
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored by the loop itself;
// handlers print their own messages. This keeps the REPL resilient and
// focused on I/O.
package cli
