package authapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/storefront/internal/authapi"
	"github.com/oakline/storefront/internal/authapi/authapitest"
	"github.com/oakline/storefront/internal/model"
)

func newClient(t *testing.T, opts authapitest.Options) (*authapi.Client, *authapitest.Server) {
	t.Helper()
	srv, ts := authapitest.Start(t, opts)
	return authapi.NewClient(ts.URL+"/", 5*time.Second), srv
}

func TestLoginAndProfile(t *testing.T) {
	c, srv := newClient(t, authapitest.Options{})
	seeded, err := srv.AddUser("Ada", "ada@oakline.test", "pw", model.RoleAdmin)
	require.NoError(t, err)
	ctx := context.Background()

	resp, err := c.Login(ctx, "ada@oakline.test", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, seeded, *resp.User)

	u, err := c.Profile(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, seeded, u)
}

func TestLoginInvalidCredentials(t *testing.T) {
	c, srv := newClient(t, authapitest.Options{})
	_, err := srv.AddUser("Ada", "ada@oakline.test", "pw", model.RoleUser)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "ada@oakline.test", "wrong")
	var apiErr *authapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid credentials", apiErr.Message)
}

func TestRegisterWithAndWithoutToken(t *testing.T) {
	ctx := context.Background()

	c, _ := newClient(t, authapitest.Options{})
	resp, err := c.Register(ctx, "Bo", "bo@oakline.test", "pw")
	require.NoError(t, err)
	assert.Empty(t, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, model.RoleUser, resp.User.Role)

	_, err = c.Register(ctx, "Bo", "bo@oakline.test", "pw")
	var apiErr *authapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	c2, _ := newClient(t, authapitest.Options{RegisterIssuesToken: true})
	resp, err = c2.Register(ctx, "Cy", "cy@oakline.test", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestProfileUpdateAndPasswords(t *testing.T) {
	c, srv := newClient(t, authapitest.Options{})
	_, err := srv.AddUser("Di", "di@oakline.test", "old", model.RoleStaff)
	require.NoError(t, err)
	ctx := context.Background()

	resp, err := c.Login(ctx, "di@oakline.test", "old")
	require.NoError(t, err)

	u, err := c.UpdateProfile(ctx, "Diana", resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "Diana", u.Name)

	require.Error(t, c.ChangePassword(ctx, "nope", "new", resp.Token))
	require.NoError(t, c.ChangePassword(ctx, "old", "new", resp.Token))
	_, err = c.Login(ctx, "di@oakline.test", "new")
	require.NoError(t, err)

	require.NoError(t, c.ForgotPassword(ctx, "di@oakline.test"))
	reset := srv.ResetToken("di@oakline.test")
	require.NotEmpty(t, reset)
	require.NoError(t, c.ResetPassword(ctx, reset, "newer"))
	require.Error(t, c.ResetPassword(ctx, reset, "again"))
	_, err = c.Login(ctx, "di@oakline.test", "newer")
	require.NoError(t, err)
}

func TestProfileRejectsBadToken(t *testing.T) {
	c, _ := newClient(t, authapitest.Options{})
	_, err := c.Profile(context.Background(), "garbage")
	var apiErr *authapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestNumericIDAndMessageField(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/auth/login" {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte(`{"message":"brewing"}`))
			return
		}
		_, _ = w.Write([]byte(`{"user":{"id":17,"email":"n@oakline.test","role":4}}`))
	}))
	defer ts.Close()
	c := authapi.NewClient(ts.URL, time.Second)

	u, err := c.Profile(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "17", u.ID)
	assert.Equal(t, model.RolePremium, u.Role)

	_, err = c.Login(context.Background(), "a", "b")
	var apiErr *authapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "brewing", apiErr.Message)
}

func TestTransportFailureIsNotAPIError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := authapi.NewClient(url, time.Second)
	_, err := c.Login(context.Background(), "a", "b")
	require.Error(t, err)
	var apiErr *authapi.APIError
	assert.False(t, errors.As(err, &apiErr))
}
