// Package session holds the Session Store: the single source of truth for
// who is acting.  A Store owns the bearer token and the verified user, keeps
// the token in durable TokenStorage, and turns every Auth API failure into a
// Result so nothing raw reaches the routing layer.
package session
