package access

import (
	"fmt"

	"github.com/oakline/storefront/internal/model"
)

// Table is the Route Access Table: for each role, the ordered list of route
// patterns that role may view.  A Table is compiled once and never mutated.
type Table struct {
	routes map[model.Role]compiledRoutes
}

type compiledRoutes struct {
	exact    map[string]struct{}
	patterns []Pattern // only patterns with named segments, in declaration order
	all      []Pattern
}

// NewTable compiles the given role→patterns mapping.  Roles outside the four
// enumerated values are rejected.
func NewTable(routes map[model.Role][]string) (*Table, error) {
	t := &Table{routes: make(map[model.Role]compiledRoutes, len(routes))}
	for role, raws := range routes {
		if !role.Valid() {
			return nil, fmt.Errorf("access table: invalid role %d", role)
		}
		cr := compiledRoutes{exact: make(map[string]struct{}, len(raws))}
		for _, raw := range raws {
			p, err := CompilePattern(raw)
			if err != nil {
				return nil, fmt.Errorf("access table %s: %w", role, err)
			}
			cr.all = append(cr.all, p)
			cr.exact[raw] = struct{}{}
			if p.HasNamedSegments() {
				cr.patterns = append(cr.patterns, p)
			}
		}
		t.routes[role] = cr
	}
	return t, nil
}

// MustTable is like NewTable but panics on error.
func MustTable(routes map[model.Role][]string) *Table {
	t, err := NewTable(routes)
	if err != nil {
		panic(err)
	}
	return t
}

// Patterns returns the patterns declared for role in declaration order.
func (t *Table) Patterns(role model.Role) []Pattern {
	cr, ok := t.routes[role]
	if !ok {
		return nil
	}
	out := make([]Pattern, len(cr.all))
	copy(out, cr.all)
	return out
}

var userRoutes = []string{
	"/",
	"/products",
	"/products/:slug",
	"/about",
	"/contact",
	"/careers",
	"/careers/:id",
	"/favorites",
	"/profile",
	"/profile/password",
}

// DefaultRoutes is the storefront's role→routes mapping.
var DefaultRoutes = map[model.Role][]string{
	model.RoleAdmin: {
		"/admin",
		"/admin/products",
		"/admin/products/new",
		"/admin/products/:id/edit",
		"/admin/jobs",
		"/admin/jobs/new",
		"/admin/jobs/:id/edit",
		"/admin/applications",
		"/admin/applications/:id",
		"/admin/messages",
		"/admin/messages/:id",
		"/admin/users",
		"/admin/users/:id/sessions",
		"/admin/profile",
	},
	model.RoleStaff: {
		"/staff",
		"/staff/products",
		"/staff/products/:id/edit",
		"/staff/applications",
		"/staff/applications/:id",
		"/staff/messages",
		"/staff/messages/:id",
		"/staff/profile",
	},
	model.RoleUser: userRoutes,
	model.RolePremium: append(append([]string{}, userRoutes...),
		"/premium",
		"/premium/collections",
		"/premium/collections/:slug",
	),
}

// DefaultTable is DefaultRoutes compiled.
var DefaultTable = MustTable(DefaultRoutes)
