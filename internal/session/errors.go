package session

import (
	"errors"
	"net/http"

	"github.com/oakline/storefront/internal/authapi"
)

var (
	// ErrInvalidCredentials is returned by Login when the server rejects the
	// identifier/secret pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnavailable wraps transport failures talking to the Auth API.
	ErrUnavailable = errors.New("authentication service unavailable")
	// ErrMissingToken is returned when a login response carries no token.
	ErrMissingToken = errors.New("auth response did not include a token")
	// ErrPersist is returned when the token could not be written to storage.
	ErrPersist = errors.New("could not persist session")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAlreadyInitialized is returned by a second Initialize call.
	ErrAlreadyInitialized = errors.New("session already initialized")
)

const genericMessage = "something went wrong, please try again"

// classify maps an Auth API error onto the session error taxonomy.  Server
// errors keep their *authapi.APIError so the server's message survives;
// anything that is not an API error is a transport failure.
func classify(err error, credentialCheck bool) error {
	var apiErr *authapi.APIError
	if errors.As(err, &apiErr) {
		if credentialCheck && apiErr.Status == http.StatusUnauthorized {
			return ErrInvalidCredentials
		}
		return apiErr
	}
	return errors.Join(ErrUnavailable, err)
}

func messageFor(err error) string {
	var apiErr *authapi.APIError
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return ErrInvalidCredentials.Error()
	case errors.Is(err, ErrNotAuthenticated):
		return "please log in first"
	case errors.Is(err, ErrPersist):
		return "could not save your session"
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	default:
		return genericMessage
	}
}
