package nav

import (
	"time"

	"github.com/artstore/artstore/internal/client/models"
)

// GuardAction is what the view layer should do for a requested path.
type GuardAction int

const (
	// ActionRender shows the requested content.
	ActionRender GuardAction = iota
	// ActionPlaceholder shows a loading placeholder while auth state is
	// still being established.
	ActionPlaceholder
	// ActionRedirectLogin sends the user to the login view.
	ActionRedirectLogin
)

func (a GuardAction) String() string {
	switch a {
	case ActionRender:
		return "render"
	case ActionPlaceholder:
		return "placeholder"
	case ActionRedirectLogin:
		return "redirect-login"
	default:
		return "unknown"
	}
}

// GuardDecision carries the action plus, for redirects, the path the user
// originally asked for so the login flow can return them afterwards
// (best effort, not guaranteed to be honored).
type GuardDecision struct {
	Action GuardAction
	Origin string
}

// Guard gates protected paths on auth state. While the initial bootstrap is
// loading it shows a placeholder, but only up to MaxWait: a hung backend
// must not leave the user staring at a spinner forever, so the guard then
// forces the login redirect. That timeout redirect fires exactly once per
// stuck episode; re-evaluations before the navigation lands keep showing
// the placeholder instead of issuing it again. Once loading has resolved,
// an absent user redirects on every protected navigation.
type Guard struct {
	maxWait time.Duration
	now     func() time.Time

	loadingSince time.Time
	timedOut     bool
}

func NewGuard(maxWait time.Duration) *Guard {
	if maxWait <= 0 {
		maxWait = 5 * time.Second
	}
	return &Guard{maxWait: maxWait, now: time.Now}
}

// Decide evaluates the requested path against the current auth state. Call
// it on every state change or navigation; it is cheap and side-effect free
// apart from the guard's own latches.
func (g *Guard) Decide(state models.AuthState, path string) GuardDecision {
	if !IsProtected(path) {
		return GuardDecision{Action: ActionRender}
	}

	if state.IsLoading {
		if g.loadingSince.IsZero() {
			g.loadingSince = g.now()
		}
		if g.now().Sub(g.loadingSince) < g.maxWait {
			return GuardDecision{Action: ActionPlaceholder}
		}
		// Loading never completed; force the login redirect, once per
		// stuck episode.
		if g.timedOut {
			return GuardDecision{Action: ActionPlaceholder}
		}
		g.timedOut = true
		return GuardDecision{Action: ActionRedirectLogin, Origin: path}
	}
	g.loadingSince = time.Time{}
	g.timedOut = false

	// A pending auth error gates the same way as no user at all.
	if state.CurrentUser == nil || state.LastError != "" {
		return GuardDecision{Action: ActionRedirectLogin, Origin: path}
	}

	return GuardDecision{Action: ActionRender}
}
