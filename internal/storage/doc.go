// Package storage implements durable bearer-token storage for the session
// store.  Every implementation keeps a single value under the "token" key.
package storage

import "errors"

// TokenKey is the key the bearer token is stored under.
const TokenKey = "token"

// ErrExpired is returned by Save for a token whose exp claim has passed.
// Nothing is written, so a previously stored token stays in place.
var ErrExpired = errors.New("storage: token already expired")
