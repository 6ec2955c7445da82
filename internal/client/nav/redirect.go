package nav

import "net/url"

// Location is the slice of the current URL the redirector looks at, plus
// whether a user is signed in.
type Location struct {
	Path string
	// Fragment is the part after '#', without the '#', in query syntax
	// (e.g. "type=recovery&access_token=..." or "error=...&error_code=otp_expired").
	Fragment string
	// Query is the raw query string without the '?'.
	Query string

	Authenticated bool
}

// Redirect is a navigation to perform. Replace means the current history
// entry is replaced so the back button cannot return to the consumed URL.
type Redirect struct {
	Path    string
	Replace bool
}

// Redirector turns URL changes into at most one redirect decision. Rules in
// priority order: verification callbacks in the fragment win over the
// expired-code error, which wins over the signed-in-on-a-pre-auth-page
// redirect to the profile. The profile redirect fires once per sign-in
// session; Reset rearms it on sign-out or a new session.
type Redirector struct {
	profileRedirected bool
}

func NewRedirector() *Redirector {
	return &Redirector{}
}

// Decide evaluates loc and returns the redirect to perform, or nil. Only
// one decision is ever acted on per change.
func (r *Redirector) Decide(loc Location) *Redirect {
	frag, err := url.ParseQuery(loc.Fragment)
	if err != nil {
		frag = url.Values{}
	}

	switch frag.Get("type") {
	case "recovery", "signup":
		// Email verification callback landed; the tokens in the fragment
		// must not survive in history.
		return &Redirect{Path: RouteLogin + "?verified=true", Replace: true}
	}

	if frag.Get("error_code") == "otp_expired" {
		return &Redirect{Path: RouteLogin + "?verification_failed=true", Replace: true}
	}

	if loc.Authenticated && IsPreAuthPage(loc.Path) && loc.Path != RouteProfile {
		if r.profileRedirected {
			return nil
		}
		r.profileRedirected = true
		return &Redirect{Path: RouteProfile, Replace: true}
	}

	return nil
}

// Reset rearms the one-shot profile redirect. Call it when the user signs
// out or a new sign-in session begins.
func (r *Redirector) Reset() {
	r.profileRedirected = false
}
