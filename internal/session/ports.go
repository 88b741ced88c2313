package session

import (
	"context"

	"github.com/oakline/storefront/internal/authapi"
	"github.com/oakline/storefront/internal/model"
)

// AuthAPI is the remote authentication service.
type AuthAPI interface {
	Login(ctx context.Context, identifier, secret string) (authapi.AuthResponse, error)
	Register(ctx context.Context, name, identifier, secret string) (authapi.AuthResponse, error)
	Profile(ctx context.Context, token string) (model.User, error)
	UpdateProfile(ctx context.Context, name, token string) (model.User, error)
	ChangePassword(ctx context.Context, current, next, token string) error
	ForgotPassword(ctx context.Context, identifier string) error
	ResetPassword(ctx context.Context, resetToken, secret string) error
}

// TokenStorage persists the bearer token across page loads.  Load returns an
// empty string when nothing is stored.  Delete of a missing token is not an
// error.
type TokenStorage interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}
