package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/oakline/storefront/internal/authapi"
	"github.com/oakline/storefront/internal/middleware"
	"github.com/oakline/storefront/internal/model"
	"github.com/oakline/storefront/internal/nav"
	"github.com/oakline/storefront/internal/session"
)

// AuthHandler serves the credential forms.  Every action goes through the
// request's session.Store; the handler only turns Results into responses.
type AuthHandler struct {
	// Home returns the landing page for a role after login.
	Home      func(model.Role) string
	LoginPath string
}

func NewAuthHandler(home func(model.Role) string, loginPath string) *AuthHandler {
	return &AuthHandler{Home: home, LoginPath: loginPath}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type registerReq struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type emailReq struct {
	Email string `json:"email" form:"email"`
}

type resetReq struct {
	Password string `json:"password" form:"password"`
}

type profileReq struct {
	Name string `json:"name" form:"name"`
}

type passwordReq struct {
	Current string `json:"current_password" form:"current_password"`
	New     string `json:"new_password" form:"new_password"`
}

// Login: exchange credentials for a session and go to the role's home.
func (h *AuthHandler) Login(c echo.Context) error {
	st := middleware.CurrentSession(c)
	if st == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
	}
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	res := st.Login(c.Request().Context(), req.Email, req.Password)
	if !res.OK() {
		return c.JSON(statusFor(res.Err), echo.Map{"error": res.Message})
	}
	return nav.Echo{C: c}.Navigate(h.Home(res.User.Role), nav.Push)
}

// Register: create an account.  With a session the user lands home,
// otherwise on the login page.
func (h *AuthHandler) Register(c echo.Context) error {
	st := middleware.CurrentSession(c)
	if st == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
	}
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	res := st.Register(c.Request().Context(), strings.TrimSpace(req.Name), req.Email, req.Password)
	if !res.OK() {
		return c.JSON(statusFor(res.Err), echo.Map{"error": res.Message})
	}
	if res.SessionEstablished {
		return nav.Echo{C: c}.Navigate(h.Home(res.User.Role), nav.Push)
	}
	return nav.Echo{C: c}.Navigate(h.LoginPath+"?registered=1", nav.Push)
}

// Logout: drop the session and return to the login page.
func (h *AuthHandler) Logout(c echo.Context) error {
	if st := middleware.CurrentSession(c); st != nil {
		st.Logout(c.Request().Context())
	}
	return nav.Echo{C: c}.Navigate(h.LoginPath, nav.Push)
}

// ForgotPassword always answers the same way so the response does not tell
// whether the email has an account.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	st := middleware.CurrentSession(c)
	if st == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
	}
	var req emailReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	res := st.ForgotPassword(c.Request().Context(), strings.TrimSpace(req.Email))
	if !res.OK() && statusFor(res.Err) >= http.StatusInternalServerError {
		return c.JSON(statusFor(res.Err), echo.Map{"error": res.Message})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "if the account exists, a reset link is on its way"})
}

// ResetPassword completes a reset using the token from the URL.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	st := middleware.CurrentSession(c)
	if st == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
	}
	var req resetReq
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password required"})
	}
	res := st.ResetPassword(c.Request().Context(), c.Param("token"), req.Password)
	if !res.OK() {
		return c.JSON(statusFor(res.Err), echo.Map{"error": res.Message})
	}
	return nav.Echo{C: c}.Navigate(h.LoginPath+"?reset=1", nav.Push)
}

// UpdateProfile renames the current user.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	st := middleware.CurrentSession(c)
	if st == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
	}
	var req profileReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	res := st.UpdateProfile(c.Request().Context(), strings.TrimSpace(req.Name))
	if !res.OK() {
		return c.JSON(statusFor(res.Err), echo.Map{"error": res.Message})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": res.User})
}

// ChangePassword replaces the current user's password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	st := middleware.CurrentSession(c)
	if st == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
	}
	var req passwordReq
	if err := c.Bind(&req); err != nil || req.New == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_password required"})
	}
	res := st.ChangePassword(c.Request().Context(), req.Current, req.New)
	if !res.OK() {
		return c.JSON(statusFor(res.Err), echo.Map{"error": res.Message})
	}
	return c.NoContent(http.StatusNoContent)
}

// statusFor maps a session failure to the HTTP status of the form response.
func statusFor(err error) int {
	var apiErr *authapi.APIError
	switch {
	case errors.Is(err, session.ErrInvalidCredentials), errors.Is(err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrPersist):
		return http.StatusInternalServerError
	case errors.Is(err, session.ErrMissingToken):
		return http.StatusBadGateway
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
