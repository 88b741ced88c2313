package authapitest

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/oakline/storefront/internal/model"
	"github.com/oakline/storefront/internal/utils"
)

// ----- DTOs -----

type credentialsReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	Token string      `json:"token,omitempty"`
	User  *model.User `json:"user,omitempty"`
}

type userResp struct {
	User model.User `json:"user"`
}

// login: verify and return a token.
func (s *Server) login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := normalize(req.Email)
	if email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	s.mu.Lock()
	a, ok := s.users[email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(s.opts.Secret, a.ID, a.Email, a.Role, s.opts.TokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	u := a.user()
	return c.JSON(http.StatusOK, authResp{Token: tok.Token, User: &u})
}

// register: create a USER account, optionally logging it in.
func (s *Server) register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := normalize(req.Email)
	if email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	s.mu.Lock()
	_, exists := s.users[email]
	s.mu.Unlock()
	if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	}
	u, err := s.AddUser(strings.TrimSpace(req.Name), email, req.Password, model.RoleUser)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	resp := authResp{User: &u}
	if s.opts.RegisterIssuesToken {
		tok, err := utils.NewAccessToken(s.opts.Secret, u.ID, u.Email, u.Role, s.opts.TokenTTL)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
		}
		resp.Token = tok.Token
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) profile(c echo.Context) error {
	a, err := s.authenticate(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	return c.JSON(http.StatusOK, userResp{User: a.user()})
}

func (s *Server) updateProfile(c echo.Context) error {
	a, err := s.authenticate(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	s.mu.Lock()
	a.Name = strings.TrimSpace(req.Name)
	u := a.user()
	s.mu.Unlock()
	return c.JSON(http.StatusOK, userResp{User: u})
}

func (s *Server) changePassword(c echo.Context) error {
	a, err := s.authenticate(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	var req struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil || req.New == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_password required"})
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Current)) != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current password is incorrect"})
	}
	if err := s.setPassword(a.Email, req.New); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// forgotPassword always answers 202 so the response does not reveal whether
// the email has an account.
func (s *Server) forgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || normalize(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	email := normalize(req.Email)
	s.mu.Lock()
	if _, ok := s.users[email]; ok {
		s.resets[uuid.NewString()] = email
	}
	s.mu.Unlock()
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) resetPassword(c echo.Context) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token/password required"})
	}
	s.mu.Lock()
	email, ok := s.resets[req.Token]
	delete(s.resets, req.Token)
	s.mu.Unlock()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired reset token"})
	}
	if err := s.setPassword(email, req.Password); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setPassword(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.users[email]; ok {
		a.PasswordHash = string(hash)
	}
	return nil
}

// authenticate resolves the Bearer token to an account.
func (s *Server) authenticate(c echo.Context) (*account, error) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil, echo.ErrUnauthorized
	}
	claims, err := utils.ParseAccessToken(s.opts.Secret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.users {
		if a.ID == claims.Subject {
			return a, nil
		}
	}
	return nil, echo.ErrUnauthorized
}
