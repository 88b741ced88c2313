package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/storefront/internal/authapi"
	"github.com/oakline/storefront/internal/model"
	"github.com/oakline/storefront/internal/storage"
	"github.com/oakline/storefront/internal/utils"
)

var errNetwork = errors.New("dial tcp: connection refused")

type fakeAPI struct {
	mu sync.Mutex

	loginResp    authapi.AuthResponse
	loginErr     error
	registerResp authapi.AuthResponse
	registerErr  error
	profileUser  model.User
	profileErr   error
	updateErr    error
	passwordErr  error

	profileCalls  int
	profileTokens []string
}

func (f *fakeAPI) Login(context.Context, string, string) (authapi.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Register(context.Context, string, string, string) (authapi.AuthResponse, error) {
	return f.registerResp, f.registerErr
}

func (f *fakeAPI) Profile(_ context.Context, token string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	f.profileTokens = append(f.profileTokens, token)
	return f.profileUser, f.profileErr
}

func (f *fakeAPI) UpdateProfile(_ context.Context, name, _ string) (model.User, error) {
	if f.updateErr != nil {
		return model.User{}, f.updateErr
	}
	u := f.profileUser
	u.Name = name
	return u, nil
}

func (f *fakeAPI) ChangePassword(context.Context, string, string, string) error { return f.passwordErr }
func (f *fakeAPI) ForgotPassword(context.Context, string) error                 { return nil }
func (f *fakeAPI) ResetPassword(context.Context, string, string) error          { return f.passwordErr }

type failingStorage struct{ storage.Memory }

func (f *failingStorage) Save(context.Context, string) error { return errors.New("disk full") }

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingSink) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

var admin = model.User{ID: "1", Name: "Ada", Email: "ada@oakline.test", Role: model.RoleAdmin}

func TestInitializeWithoutToken(t *testing.T) {
	api := &fakeAPI{}
	s := NewStore(api, storage.NewMemory(""))
	assert.True(t, s.State().Loading)

	require.NoError(t, s.Initialize(context.Background()))
	st := s.State()
	assert.False(t, st.Loading)
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.User)
	assert.Zero(t, api.profileCalls)
}

func TestInitializeVerifiesStoredToken(t *testing.T) {
	api := &fakeAPI{profileUser: admin}
	sink := &recordingSink{}
	s := NewStore(api, storage.NewMemory("tok-1"), WithEvents(sink))

	before := s.State()
	assert.True(t, before.Loading)
	assert.False(t, before.Authenticated)

	require.NoError(t, s.Initialize(context.Background()))
	st := s.State()
	assert.False(t, st.Loading)
	assert.True(t, st.Authenticated)
	assert.Equal(t, "tok-1", st.Token)
	assert.Equal(t, admin, *st.User)
	assert.Equal(t, []string{"tok-1"}, api.profileTokens)
	assert.Equal(t, []EventType{EventVerified}, sink.types())
}

func TestInitializeFailureClearsToken(t *testing.T) {
	for name, err := range map[string]error{
		"expired": &authapi.APIError{Status: http.StatusUnauthorized, Message: "invalid token"},
		"network": errNetwork,
	} {
		t.Run(name, func(t *testing.T) {
			api := &fakeAPI{profileErr: err}
			tokens := storage.NewMemory("stale")
			sink := &recordingSink{}
			s := NewStore(api, tokens, WithEvents(sink))

			require.NoError(t, s.Initialize(context.Background()))
			st := s.State()
			assert.False(t, st.Loading)
			assert.False(t, st.Authenticated)
			assert.Empty(t, st.Token)
			assert.Nil(t, st.User)

			stored, _ := tokens.Load(context.Background())
			assert.Empty(t, stored)
			assert.Equal(t, []EventType{EventVerifyFailed}, sink.types())
		})
	}
}

func TestInitializeOnlyOnce(t *testing.T) {
	api := &fakeAPI{profileUser: admin}
	s := NewStore(api, storage.NewMemory("tok"))
	ctx := context.Background()

	require.NoError(t, s.Initialize(ctx))
	assert.ErrorIs(t, s.Initialize(ctx), ErrAlreadyInitialized)
	assert.Equal(t, 1, api.profileCalls)
}

func TestLoginSuccessPersistsToken(t *testing.T) {
	api := &fakeAPI{loginResp: authapi.AuthResponse{Token: "fresh", User: &admin}, profileUser: admin}
	tokens := storage.NewMemory("")
	s := NewStore(api, tokens)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	res := s.Login(ctx, "ada@oakline.test", "pw")
	require.True(t, res.OK())
	assert.True(t, res.SessionEstablished)
	assert.Equal(t, admin, *res.User)

	st := s.State()
	assert.True(t, st.Authenticated)
	stored, _ := tokens.Load(ctx)
	assert.Equal(t, "fresh", stored)

	// The persisted token is the one a later page load verifies.
	next := NewStore(api, tokens)
	require.NoError(t, next.Initialize(ctx))
	assert.True(t, next.State().Authenticated)
	assert.Equal(t, []string{"fresh"}, api.profileTokens)
}

func TestLoginWithoutUserFallsBackToIdentifier(t *testing.T) {
	api := &fakeAPI{loginResp: authapi.AuthResponse{Token: "t"}}
	s := NewStore(api, storage.NewMemory(""))
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	res := s.Login(ctx, "who@oakline.test", "pw")
	require.True(t, res.OK())
	assert.Equal(t, "who@oakline.test", res.User.Email)
	assert.Equal(t, model.RoleUnknown, s.State().Role())
}

func TestLoginWrongPasswordLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	wrong := &authapi.APIError{Status: http.StatusUnauthorized, Message: "invalid credentials"}

	t.Run("unauthenticated", func(t *testing.T) {
		api := &fakeAPI{loginErr: wrong}
		tokens := storage.NewMemory("")
		s := NewStore(api, tokens)
		require.NoError(t, s.Initialize(ctx))
		before := s.State()

		res := s.Login(ctx, "ada@oakline.test", "nope")
		assert.False(t, res.OK())
		assert.ErrorIs(t, res.Err, ErrInvalidCredentials)
		assert.Equal(t, "invalid credentials", res.Message)
		assert.Equal(t, before, s.State())
		stored, _ := tokens.Load(ctx)
		assert.Empty(t, stored)
	})

	t.Run("authenticated", func(t *testing.T) {
		api := &fakeAPI{loginErr: wrong, profileUser: admin}
		tokens := storage.NewMemory("old")
		s := NewStore(api, tokens)
		require.NoError(t, s.Initialize(ctx))
		before := s.State()
		require.True(t, before.Authenticated)

		res := s.Login(ctx, "other@oakline.test", "nope")
		assert.ErrorIs(t, res.Err, ErrInvalidCredentials)
		assert.Equal(t, before, s.State())
		stored, _ := tokens.Load(ctx)
		assert.Equal(t, "old", stored)
	})
}

func TestLoginFailureKinds(t *testing.T) {
	ctx := context.Background()

	s := NewStore(&fakeAPI{loginErr: errNetwork}, storage.NewMemory(""))
	require.NoError(t, s.Initialize(ctx))
	res := s.Login(ctx, "a", "b")
	assert.ErrorIs(t, res.Err, ErrUnavailable)
	assert.Equal(t, genericMessage, res.Message)

	s = NewStore(&fakeAPI{loginErr: &authapi.APIError{Status: http.StatusLocked, Message: "account locked"}}, storage.NewMemory(""))
	require.NoError(t, s.Initialize(ctx))
	res = s.Login(ctx, "a", "b")
	assert.Equal(t, "account locked", res.Message)

	s = NewStore(&fakeAPI{loginResp: authapi.AuthResponse{User: &admin}}, storage.NewMemory(""))
	require.NoError(t, s.Initialize(ctx))
	res = s.Login(ctx, "a", "b")
	assert.ErrorIs(t, res.Err, ErrMissingToken)
	assert.False(t, s.State().Authenticated)
}

func TestLoginStorageFailureDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	s := NewStore(&fakeAPI{loginResp: authapi.AuthResponse{Token: "t", User: &admin}}, &failingStorage{})
	require.NoError(t, s.Initialize(ctx))

	res := s.Login(ctx, "a", "b")
	assert.ErrorIs(t, res.Err, ErrPersist)
	st := s.State()
	assert.Empty(t, st.Token)
	assert.Nil(t, st.User)
}

func TestRegisterPolicies(t *testing.T) {
	ctx := context.Background()
	newUser := model.User{ID: "9", Name: "Bo", Email: "bo@oakline.test", Role: model.RoleUser}

	t.Run("token auto-login", func(t *testing.T) {
		tokens := storage.NewMemory("")
		s := NewStore(&fakeAPI{registerResp: authapi.AuthResponse{Token: "reg", User: &newUser}}, tokens)
		require.NoError(t, s.Initialize(ctx))
		res := s.Register(ctx, "Bo", "bo@oakline.test", "pw")
		require.True(t, res.OK())
		assert.True(t, res.SessionEstablished)
		assert.True(t, s.State().Authenticated)
		stored, _ := tokens.Load(ctx)
		assert.Equal(t, "reg", stored)
	})

	t.Run("no token", func(t *testing.T) {
		tokens := storage.NewMemory("")
		s := NewStore(&fakeAPI{registerResp: authapi.AuthResponse{}}, tokens)
		require.NoError(t, s.Initialize(ctx))
		res := s.Register(ctx, "Bo", "bo@oakline.test", "pw")
		require.True(t, res.OK())
		assert.False(t, res.SessionEstablished)
		assert.Equal(t, "bo@oakline.test", res.User.Email)
		assert.False(t, s.State().Authenticated)
	})

	t.Run("require login ignores token", func(t *testing.T) {
		tokens := storage.NewMemory("")
		s := NewStore(&fakeAPI{registerResp: authapi.AuthResponse{Token: "reg", User: &newUser}}, tokens,
			WithRegisterPolicy(RegisterRequireLogin))
		require.NoError(t, s.Initialize(ctx))
		res := s.Register(ctx, "Bo", "bo@oakline.test", "pw")
		require.True(t, res.OK())
		assert.False(t, res.SessionEstablished)
		stored, _ := tokens.Load(ctx)
		assert.Empty(t, stored)
	})

	t.Run("conflict", func(t *testing.T) {
		s := NewStore(&fakeAPI{registerErr: &authapi.APIError{Status: http.StatusConflict, Message: "email already exists"}}, storage.NewMemory(""))
		require.NoError(t, s.Initialize(ctx))
		res := s.Register(ctx, "Bo", "bo@oakline.test", "pw")
		assert.False(t, res.OK())
		assert.Equal(t, "email already exists", res.Message)
		assert.False(t, s.State().Authenticated)
	})
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	tokens := storage.NewMemory("tok")
	sink := &recordingSink{}
	s := NewStore(&fakeAPI{profileUser: admin}, tokens, WithEvents(sink))
	require.NoError(t, s.Initialize(ctx))

	s.Logout(ctx)
	after := s.State()
	assert.False(t, after.Authenticated)
	stored, _ := tokens.Load(ctx)
	assert.Empty(t, stored)

	s.Logout(ctx)
	assert.Equal(t, after, s.State())
	assert.Equal(t, []EventType{EventVerified, EventLogout}, sink.types())
}

func TestUpdateUserKeepsToken(t *testing.T) {
	ctx := context.Background()
	s := NewStore(&fakeAPI{profileUser: admin}, storage.NewMemory("tok"))
	require.NoError(t, s.Initialize(ctx))

	renamed := admin
	renamed.Name = "Ada L."
	s.UpdateUser(renamed)
	st := s.State()
	assert.Equal(t, "tok", st.Token)
	assert.Equal(t, "Ada L.", st.User.Name)
}

func TestProfileOperations(t *testing.T) {
	ctx := context.Background()

	anon := NewStore(&fakeAPI{}, storage.NewMemory(""))
	require.NoError(t, anon.Initialize(ctx))
	assert.ErrorIs(t, anon.UpdateProfile(ctx, "x").Err, ErrNotAuthenticated)
	assert.ErrorIs(t, anon.ChangePassword(ctx, "a", "b").Err, ErrNotAuthenticated)

	api := &fakeAPI{profileUser: admin}
	s := NewStore(api, storage.NewMemory("tok"))
	require.NoError(t, s.Initialize(ctx))

	res := s.UpdateProfile(ctx, "Countess")
	require.True(t, res.OK())
	assert.Equal(t, "Countess", s.State().User.Name)

	api.passwordErr = &authapi.APIError{Status: http.StatusBadRequest, Message: "current password is incorrect"}
	res = s.ChangePassword(ctx, "bad", "new")
	assert.Equal(t, "current password is incorrect", res.Message)
	assert.True(t, s.State().Authenticated)

	assert.True(t, s.ForgotPassword(ctx, "ada@oakline.test").OK())
}

func TestStateIsACopy(t *testing.T) {
	s := NewStore(&fakeAPI{profileUser: admin}, storage.NewMemory("tok"))
	require.NoError(t, s.Initialize(context.Background()))

	st := s.State()
	st.User.Role = model.RoleUser
	assert.Equal(t, model.RoleAdmin, s.State().Role())
}

func TestEventsCarryRequestID(t *testing.T) {
	api := &fakeAPI{loginResp: authapi.AuthResponse{Token: "t", User: &admin}}
	sink := &recordingSink{}
	s := NewStore(api, storage.NewMemory(""), WithEvents(sink))
	ctx := WithRequestID(context.Background(), "req-42")
	require.NoError(t, s.Initialize(ctx))

	require.True(t, s.Login(ctx, "ada@oakline.test", "pw").OK())
	require.Len(t, sink.events, 1)
	assert.Equal(t, EventLogin, sink.events[0].Type)
	assert.Equal(t, "req-42", sink.events[0].RequestID)
	assert.Equal(t, admin.ID, sink.events[0].UserID)
}

func TestLoginWithExpiredTokenDoesNotMutate(t *testing.T) {
	expired, err := utils.NewAccessToken("k", admin.ID, admin.Email, admin.Role, -time.Minute)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), rec)
	s := NewStore(&fakeAPI{loginResp: authapi.AuthResponse{Token: expired.Token, User: &admin}},
		storage.NewCookie(c, "token", false, time.Hour))
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	res := s.Login(ctx, "ada@oakline.test", "pw")
	require.False(t, res.OK())
	assert.ErrorIs(t, res.Err, ErrPersist)
	assert.ErrorIs(t, res.Err, storage.ErrExpired)
	assert.False(t, s.State().Authenticated)
	assert.Empty(t, rec.Header().Values("Set-Cookie"))
}
