package access

import "github.com/oakline/storefront/internal/model"

// Authorizer decides whether a role may view a path.  It is stateless apart
// from its immutable Table and safe for concurrent use.
type Authorizer struct {
	table *Table
}

// NewAuthorizer returns an Authorizer over t.  A nil table denies everything.
func NewAuthorizer(t *Table) *Authorizer {
	return &Authorizer{table: t}
}

// Allowed reports whether role may view path.  An empty path, an unknown role
// or a role missing from the table is denied.  Exact matches are checked
// before named-segment patterns, which are tried in declaration order.
func (a *Authorizer) Allowed(role model.Role, path string) bool {
	if path == "" || a == nil || a.table == nil || !role.Valid() {
		return false
	}
	cr, ok := a.table.routes[role]
	if !ok {
		return false
	}
	if _, ok := cr.exact[path]; ok {
		return true
	}
	for _, p := range cr.patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}
