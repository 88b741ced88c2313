package router

import (
	"github.com/labstack/echo/v4"

	"github.com/oakline/storefront/internal/handler"
)

// RegisterAuth registers the unauthenticated entry points and the form
// actions behind them.  limit, when non-nil, guards the credential posts.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if limit != nil {
		mw = append(mw, limit)
	}

	e.GET(LoginPath, handler.View("login"))
	e.GET("/register", handler.View("register"))
	e.GET("/forgot-password", handler.View("forgot_password"))
	e.GET("/reset-password", handler.View("reset_password"))
	e.GET("/reset-password/:token", handler.View("reset_password"))

	e.POST(LoginPath, a.Login, mw...)
	e.POST("/register", a.Register, mw...)
	e.POST("/forgot-password", a.ForgotPassword, mw...)
	e.POST("/reset-password/:token", a.ResetPassword, mw...)
	// Logout is an action available to everyone; without a session it
	// just lands on the login page.
	e.POST("/logout", a.Logout)
}
