package session

import "github.com/oakline/storefront/internal/model"

// Result is the outcome of a user-triggered session operation.  Failures
// carry both the classified error and a message fit for display.
type Result struct {
	User *model.User
	// SessionEstablished is true when the operation left an authenticated
	// session behind (login, or register with auto-login).
	SessionEstablished bool
	Message            string
	Err                error
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Err == nil }

func failure(err error) Result {
	return Result{Err: err, Message: messageFor(err)}
}

// RegisterPolicy decides what a successful registration does with a token
// in the response.
type RegisterPolicy uint8

const (
	// RegisterAutoLogin establishes a session when the response has a token.
	RegisterAutoLogin RegisterPolicy = iota
	// RegisterRequireLogin never establishes a session; the caller sends the
	// user to the login step.
	RegisterRequireLogin
)

// ParseRegisterPolicy maps "auto_login" / "require_login" to a policy,
// defaulting to RegisterAutoLogin.
func ParseRegisterPolicy(s string) RegisterPolicy {
	if s == "require_login" {
		return RegisterRequireLogin
	}
	return RegisterAutoLogin
}
