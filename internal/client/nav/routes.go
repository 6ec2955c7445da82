// Package nav decides navigation: which views need authentication, when the
// guard redirects to login, and which post-auth redirects fire on URL
// changes. Decisions are pure values so they can be tested without any view
// layer.
package nav

import "strings"

// Logical routes of the application.
const (
	RouteHome           = "/"
	RouteExplore        = "/explore"
	RouteArtists        = "/artists"
	RouteArtworks       = "/artworks"
	RouteLogin          = "/login"
	RouteRegister       = "/register"
	RouteForgotPassword = "/forgot-password"
	RouteAuthError      = "/auth/error"
	RouteForceLogout    = "/force-logout"
	RouteProfile        = "/profile"
	RouteProfileEdit    = "/profile/edit"
	RouteUpload         = "/upload"
	RouteAdmin          = "/admin"
)

// IsProtected reports whether path requires an authenticated user.
func IsProtected(path string) bool {
	switch {
	case path == RouteProfile, strings.HasPrefix(path, RouteProfile+"/"):
		return true
	case path == RouteUpload:
		return true
	case path == RouteAdmin, strings.HasPrefix(path, RouteAdmin+"/"):
		return true
	}
	return false
}

// IsPreAuthPage reports whether path is one of the pages shown to users who
// are not signed in yet. A signed-in user landing here is redirected to
// their profile.
func IsPreAuthPage(path string) bool {
	switch path {
	case RouteLogin, RouteRegister, RouteForgotPassword:
		return true
	}
	return false
}
