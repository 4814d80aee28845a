package session

import "strings"

// Routes the session navigates to.
const (
	LandingPath   = "/"
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

var publicAuthPaths = map[string]struct{}{
	"/login":           {},
	"/forgot-password": {},
	"/resend-code":     {},
}

const resetPasswordPrefix = "/reset-password"

// IsPublicPath reports whether path is reachable without a session: the
// landing page and the auth pages. Authenticated users may stay on these too.
func IsPublicPath(path string) bool {
	if path == LandingPath {
		return true
	}
	if _, ok := publicAuthPaths[strings.TrimRight(path, "/")]; ok {
		return true
	}
	return strings.HasPrefix(path, resetPasswordPrefix)
}

// RecordingNavigator remembers the last navigation target.
type RecordingNavigator struct {
	Target string
}

// Navigate records path as the target.
func (n *RecordingNavigator) Navigate(path string) {
	n.Target = path
}
