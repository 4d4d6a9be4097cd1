// Package gate decides what happens when a route is visited: render it,
// hold while the session is still resolving, or redirect. The rules are a
// pure function of session state so the CLI and the HTTP server share one
// decision table.
package gate

import "github.com/stintapp/stint/internal/session"

// Well-known route targets used by redirect decisions.
const (
	SignInPath    = "/signin"
	DashboardPath = "/dashboard"
)

// Status is the outcome of a gate check.
type Status int

const (
	// Hold means the session is still resolving. Render nothing and wait;
	// redirecting now would bounce users with a valid stored session.
	Hold Status = iota

	// Allow means the route may render.
	Allow

	// Redirect means the visitor belongs elsewhere. The decision carries
	// the target location.
	Redirect
)

// String returns the status name for logs.
func (s Status) String() string {
	switch s {
	case Hold:
		return "hold"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the outcome of checking a route against the session state.
type Decision struct {
	Status   Status
	Location string

	// ReplaceHistory marks the redirect as a history replacement rather
	// than a push, so navigating back does not land on the gated route
	// and bounce again.
	ReplaceHistory bool
}

// Decide checks a protected route. Signed-in users pass, signed-out users
// are sent to sign-in, a resolving session holds.
func Decide(st session.State) Decision {
	if st.Resolving {
		return Decision{Status: Hold}
	}
	if st.SignedIn() {
		return Decision{Status: Allow}
	}
	return Decision{Status: Redirect, Location: SignInPath, ReplaceHistory: true}
}

// DecidePublic checks a public-only route such as sign-in or sign-up.
// Signed-out users pass, signed-in users are sent to the dashboard,
// a resolving session holds.
func DecidePublic(st session.State) Decision {
	if st.Resolving {
		return Decision{Status: Hold}
	}
	if st.SignedIn() {
		return Decision{Status: Redirect, Location: DashboardPath, ReplaceHistory: true}
	}
	return Decision{Status: Allow}
}
