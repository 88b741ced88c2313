// Package authapitest provides an in-memory implementation of the Auth API
// for tests and local development.  Passwords are bcrypt hashed and tokens
// are HS256 JWTs, so clients see the same shapes as from the real service.
package authapitest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/oakline/storefront/internal/model"
	"github.com/oakline/storefront/internal/utils"
)

// Options configures a Server.  Zero values get defaults.
type Options struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
	// RegisterIssuesToken makes /auth/register log the new account in.
	RegisterIssuesToken bool
}

type account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         model.Role
}

// Server is the stub Auth API.  It is safe for concurrent use.
type Server struct {
	echo *echo.Echo
	opts Options

	mu     sync.Mutex
	users  map[string]*account // by normalized email
	resets map[string]string   // reset token -> email
	calls  map[string]int      // "METHOD /path" -> count
}

// New builds a Server with its routes registered.
func New(opts Options) *Server {
	if opts.Secret == "" {
		opts.Secret = "authapitest-secret"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.MinCost
	}
	s := &Server{
		echo:   echo.New(),
		opts:   opts,
		users:  map[string]*account{},
		resets: map[string]string{},
		calls:  map[string]int{},
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(s.count)

	g := s.echo.Group("/auth")
	g.POST("/login", s.login)
	g.POST("/register", s.register)
	g.GET("/profile", s.profile)
	g.PUT("/profile", s.updateProfile)
	g.PUT("/password", s.changePassword)
	g.POST("/forgot-password", s.forgotPassword)
	g.POST("/reset-password", s.resetPassword)
	return s
}

// TB is the part of testing.TB that Start needs.
type TB interface {
	Helper()
	Cleanup(func())
}

// Start serves s on an httptest server that is closed when t finishes.
func Start(t TB, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	s := New(opts)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.echo.ServeHTTP(w, r) }

// Secret returns the signing secret of issued tokens.
func (s *Server) Secret() string { return s.opts.Secret }

// AddUser seeds an account.
func (s *Server) AddUser(name, email, password string, role model.Role) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return model.User{}, err
	}
	a := &account{ID: uuid.NewString(), Name: name, Email: normalize(email), PasswordHash: string(hash), Role: role}
	s.mu.Lock()
	s.users[a.Email] = a
	s.mu.Unlock()
	return a.user(), nil
}

// IssueToken signs a token for an existing account, bypassing the password.
func (s *Server) IssueToken(email string) (string, error) {
	s.mu.Lock()
	a, ok := s.users[normalize(email)]
	s.mu.Unlock()
	if !ok {
		return "", echo.ErrNotFound
	}
	tok, err := utils.NewAccessToken(s.opts.Secret, a.ID, a.Email, a.Role, s.opts.TokenTTL)
	return tok.Token, err
}

// ResetToken returns the last reset token issued for email.
func (s *Server) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, e := range s.resets {
		if e == normalize(email) {
			return tok
		}
	}
	return ""
}

// Calls returns how many requests hit method+path, e.g. "GET /auth/profile".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) count(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.calls[c.Request().Method+" "+c.Request().URL.Path]++
		s.mu.Unlock()
		return next(c)
	}
}

func (a *account) user() model.User {
	return model.User{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}

func normalize(email string) string { return strings.ToLower(strings.TrimSpace(email)) }
