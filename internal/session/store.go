package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/oakline/storefront/internal/model"
)

// State is a snapshot of the session.  Authenticated is derived: a token and
// a user are both present and the initial verification pass is over.
type State struct {
	Token         string
	User          *model.User
	Loading       bool
	Authenticated bool
}

// Role returns the user's role, or RoleUnknown without a user.
func (st State) Role() model.Role {
	if st.User == nil {
		return model.RoleUnknown
	}
	return st.User.Role
}

// Store owns the session for one client.  Construct one per client (per
// page load on the server) and call Initialize exactly once before reading
// State.  Mutations are applied in completion order; when two operations
// race the one that finishes last wins.
type Store struct {
	api    AuthAPI
	tokens TokenStorage
	events EventSink
	log    *zap.Logger
	policy RegisterPolicy

	mu          sync.Mutex
	token       string
	user        *model.User
	loading     bool
	initialized bool
}

// Option configures a Store.
type Option func(*Store)

// WithEvents sends lifecycle events to sink.
func WithEvents(sink EventSink) Option { return func(s *Store) { s.events = sink } }

// WithLogger sets the logger used for storage and verification failures.
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

// WithRegisterPolicy sets what Register does with a returned token.
func WithRegisterPolicy(p RegisterPolicy) Option { return func(s *Store) { s.policy = p } }

// NewStore returns a Store in the loading state.
func NewStore(api AuthAPI, tokens TokenStorage, opts ...Option) *Store {
	s := &Store{api: api, tokens: tokens, log: zap.NewNop(), loading: true}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns a copy of the current session.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{Token: s.token, Loading: s.loading}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	st.Authenticated = !s.loading && s.token != "" && s.user != nil
	return st
}

// Initialize hydrates the session from storage.  Without a stored token the
// store leaves the loading state immediately and makes no network call.
// With one, the token is verified against the Auth API: on success the
// returned user is adopted, on any failure the stored token is deleted and
// the session cleared.  Either way loading ends exactly once.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.initialized = true
	s.mu.Unlock()

	token, err := s.tokens.Load(ctx)
	if err != nil {
		s.log.Warn("session: load token failed", zap.Error(err))
		token = ""
	}
	if token == "" {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	user, err := s.api.Profile(ctx, token)
	if err != nil {
		s.log.Info("session: token verification failed", zap.Error(err))
		if derr := s.tokens.Delete(ctx); derr != nil {
			s.log.Warn("session: delete token failed", zap.Error(derr))
		}
		s.mu.Lock()
		s.token = ""
		s.user = nil
		s.loading = false
		s.mu.Unlock()
		s.emit(ctx, newEvent(EventVerifyFailed, nil))
		return nil
	}

	s.mu.Lock()
	s.user = &user
	s.loading = false
	s.mu.Unlock()
	s.emit(ctx, newEvent(EventVerified, &user))
	return nil
}

// Login exchanges credentials for a session.  On failure nothing about the
// current session changes.
func (s *Store) Login(ctx context.Context, identifier, secret string) Result {
	resp, err := s.api.Login(ctx, identifier, secret)
	if err != nil {
		return failure(classify(err, true))
	}
	if resp.Token == "" {
		return failure(ErrMissingToken)
	}
	user := resp.User
	if user == nil {
		user = &model.User{Email: identifier}
	}
	if err := s.establish(ctx, resp.Token, user); err != nil {
		return failure(err)
	}
	s.emit(ctx, newEvent(EventLogin, user))
	u := *user
	return Result{User: &u, SessionEstablished: true}
}

// Register creates an account.  When the response carries a token and the
// policy is RegisterAutoLogin the new account is logged in; otherwise the
// result succeeds without a session.
func (s *Store) Register(ctx context.Context, name, identifier, secret string) Result {
	resp, err := s.api.Register(ctx, name, identifier, secret)
	if err != nil {
		return failure(classify(err, false))
	}
	user := resp.User
	if user == nil {
		user = &model.User{Name: name, Email: identifier}
	}
	if resp.Token == "" || s.policy == RegisterRequireLogin {
		s.emit(ctx, newEvent(EventRegister, user))
		u := *user
		return Result{User: &u}
	}
	if err := s.establish(ctx, resp.Token, user); err != nil {
		return failure(err)
	}
	s.emit(ctx, newEvent(EventRegister, user))
	u := *user
	return Result{User: &u, SessionEstablished: true}
}

// establish persists the token first so that a storage failure leaves the
// in-memory session untouched.
func (s *Store) establish(ctx context.Context, token string, user *model.User) error {
	if err := s.tokens.Save(ctx, token); err != nil {
		s.log.Warn("session: save token failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	u := *user
	s.mu.Lock()
	s.token = token
	s.user = &u
	s.mu.Unlock()
	return nil
}

// Logout clears the stored token and the in-memory session.  It is safe to
// call without a session.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	had := s.token != "" || s.user != nil
	prev := s.user
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.tokens.Delete(ctx); err != nil {
		s.log.Warn("session: delete token failed", zap.Error(err))
	}
	if had {
		s.emit(ctx, newEvent(EventLogout, prev))
	}
}

// UpdateUser replaces the in-memory user.  The token is left alone.
func (s *Store) UpdateUser(u model.User) {
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
}

// UpdateProfile renames the current user on the server and adopts the
// returned record.
func (s *Store) UpdateProfile(ctx context.Context, name string) Result {
	token := s.currentToken()
	if token == "" {
		return failure(ErrNotAuthenticated)
	}
	u, err := s.api.UpdateProfile(ctx, name, token)
	if err != nil {
		return failure(classify(err, false))
	}
	s.UpdateUser(u)
	return Result{User: &u, SessionEstablished: true}
}

// ChangePassword changes the current user's password.
func (s *Store) ChangePassword(ctx context.Context, current, next string) Result {
	token := s.currentToken()
	if token == "" {
		return failure(ErrNotAuthenticated)
	}
	if err := s.api.ChangePassword(ctx, current, next, token); err != nil {
		return failure(classify(err, false))
	}
	return Result{User: s.State().User, SessionEstablished: true}
}

// ForgotPassword asks the server to send a reset link.  It does not touch
// the session.
func (s *Store) ForgotPassword(ctx context.Context, identifier string) Result {
	if err := s.api.ForgotPassword(ctx, identifier); err != nil {
		return failure(classify(err, false))
	}
	return Result{}
}

// ResetPassword completes a reset with the emailed token.  It does not log
// the user in.
func (s *Store) ResetPassword(ctx context.Context, resetToken, secret string) Result {
	if err := s.api.ResetPassword(ctx, resetToken, secret); err != nil {
		return failure(classify(err, false))
	}
	return Result{}
}

func (s *Store) currentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Store) emit(ctx context.Context, ev Event) {
	if s.events != nil {
		if ev.RequestID == "" {
			ev.RequestID = RequestIDFrom(ctx)
		}
		s.events.Emit(ctx, ev)
	}
}
