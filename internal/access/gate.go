package access

import (
	"github.com/oakline/storefront/internal/model"
	"github.com/oakline/storefront/internal/session"
)

// Outcome is what a Gate decided for one request.
type Outcome uint8

const (
	// Wait means session verification is still running: show a neutral
	// waiting state, neither the content nor a redirect.
	Wait Outcome = iota
	// Allow renders the protected content.
	Allow
	// RedirectLogin sends an unauthenticated visitor to the login entry point.
	RedirectLogin
	// RedirectNotFound hides the route from an authenticated but
	// unauthorized user.
	RedirectNotFound
)

func (o Outcome) String() string {
	switch o {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectNotFound:
		return "redirect_not_found"
	default:
		return "unknown"
	}
}

// Decision is a Gate outcome plus the redirect target, if any.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Gate wraps a restricted view.  It combines a permitted-role set with the
// Authorizer's per-path check.  Denials are never errors: they are redirects
// to the not-found page so the route's existence is not confirmed.
type Gate struct {
	authorizer   *Authorizer
	loginPath    string
	notFoundPath string
}

// NewGate returns a Gate redirecting to loginPath and notFoundPath.
func NewGate(a *Authorizer, loginPath, notFoundPath string) *Gate {
	return &Gate{authorizer: a, loginPath: loginPath, notFoundPath: notFoundPath}
}

// Check decides what to do with a request for path given the session state
// and the roles permitted at this location.
func (g *Gate) Check(st session.State, permitted []model.Role, path string) Decision {
	if st.Loading {
		return Decision{Outcome: Wait}
	}
	if !st.Authenticated || st.User == nil {
		return Decision{Outcome: RedirectLogin, Target: g.loginPath}
	}
	role := st.User.Role
	if !containsRole(permitted, role) {
		return Decision{Outcome: RedirectNotFound, Target: g.notFoundPath}
	}
	if !g.authorizer.Allowed(role, path) {
		return Decision{Outcome: RedirectNotFound, Target: g.notFoundPath}
	}
	return Decision{Outcome: Allow}
}

func containsRole(roles []model.Role, r model.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}
