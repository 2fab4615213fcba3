// Package authgate decides, per navigation, whether a view may render or must
// redirect to the login view. The policy is a pure function of session
// presence and the requested path; it performs no I/O and cannot fail.
package authgate

// Decision is the outcome of a gate evaluation.
type Decision int

const (
	// Render allows the requested view.
	Render Decision = iota
	// RedirectToLogin sends the navigation to the login view.
	RedirectToLogin
)

func (d Decision) String() string {
	if d == RedirectToLogin {
		return "redirect_to_login"
	}

	return "render"
}

// PreviewPath is the one protected path permitted to render without a session,
// supporting the anonymous demo view of the dashboard.
const PreviewPath = "/dashboard"

// LoginPath is the redirect target for rejected navigations.
const LoginPath = "/login"

var protectedPaths = map[string]struct{}{
	"/dashboard": {},
	"/expenses":  {},
	"/groups":    {},
	"/advisor":   {},
	"/settings":  {},
}

// Protected reports whether path requires a session.
func Protected(path string) bool {
	_, ok := protectedPaths[path]
	return ok
}

// Decide maps (session presence, requested path) to a render-or-redirect
// decision. The path must be the current request path at render time, never a
// cached value: an anonymous user may navigate straight to the preview path.
func Decide(authenticated bool, path string) Decision {
	if !Protected(path) {
		return Render
	}

	if authenticated || path == PreviewPath {
		return Render
	}

	return RedirectToLogin
}
