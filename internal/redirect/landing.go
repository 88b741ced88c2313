// Package redirect holds the Landing Redirector: coarse, prefix-based
// steering of authenticated users back into their role's territory.
package redirect

import (
	"strings"

	"github.com/oakline/storefront/internal/access"
	"github.com/oakline/storefront/internal/model"
	"github.com/oakline/storefront/internal/session"
)

// Policy configures a Landing.
type Policy struct {
	AdminPrefix string
	StaffPrefix string
	AdminHome   string
	StaffHome   string
	PublicHome  string
	// Exempt are the unauthenticated-only entry points (login, register,
	// password recovery) on which the Landing never redirects.
	Exempt []string
}

// DefaultPolicy is the storefront's territory layout.
var DefaultPolicy = Policy{
	AdminPrefix: "/admin",
	StaffPrefix: "/staff",
	AdminHome:   "/admin",
	StaffHome:   "/staff",
	PublicHome:  "/",
	Exempt: []string{
		"/login",
		"/register",
		"/forgot-password",
		"/reset-password",
		"/reset-password/:token",
	},
}

// Landing decides, once per navigation, whether to send the user home.
type Landing struct {
	p      Policy
	exempt []access.Pattern
}

// New compiles p.  Exempt entries use the route pattern syntax.
func New(p Policy) (*Landing, error) {
	l := &Landing{p: p}
	for _, raw := range p.Exempt {
		pat, err := access.CompilePattern(raw)
		if err != nil {
			return nil, err
		}
		l.exempt = append(l.exempt, pat)
	}
	return l, nil
}

// MustNew is like New but panics on error.
func MustNew(p Policy) *Landing {
	l, err := New(p)
	if err != nil {
		panic(err)
	}
	return l
}

// Decide returns the redirect target for a navigation to path, or ok=false
// when nothing should happen.  Loading sessions, anonymous visitors and
// unknown roles are left alone; denials are the Gate's job.
func (l *Landing) Decide(st session.State, path string) (target string, ok bool) {
	if st.Loading || !st.Authenticated || st.User == nil {
		return "", false
	}
	if l.isExempt(path) {
		return "", false
	}
	switch st.User.Role {
	case model.RoleAdmin:
		if !underPrefix(path, l.p.AdminPrefix) {
			return l.p.AdminHome, true
		}
	case model.RoleStaff:
		if !underPrefix(path, l.p.StaffPrefix) {
			return l.p.StaffHome, true
		}
	case model.RoleUser, model.RolePremium:
		if underPrefix(path, l.p.AdminPrefix) || underPrefix(path, l.p.StaffPrefix) {
			return l.p.PublicHome, true
		}
	}
	return "", false
}

func (l *Landing) isExempt(path string) bool {
	for _, p := range l.exempt {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// underPrefix reports whether path is prefix itself or lies beneath it, so
// "/administer" is not inside "/admin".
func underPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}

// Home returns the landing page for role.
func (l *Landing) Home(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return l.p.AdminHome
	case model.RoleStaff:
		return l.p.StaffHome
	default:
		return l.p.PublicHome
	}
}
