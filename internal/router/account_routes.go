package router

import (
	"github.com/labstack/echo/v4"

	"github.com/oakline/storefront/internal/access"
	"github.com/oakline/storefront/internal/handler"
	"github.com/oakline/storefront/internal/middleware"
	"github.com/oakline/storefront/internal/model"
)

// RegisterAccount registers customer pages that need a session: the
// favorites and profile screens for User and Premium, and the Premium-only
// collections.
func RegisterAccount(e *echo.Echo, gate *access.Gate, a *handler.AuthHandler) {
	customer := middleware.RequireRole(gate, model.RoleUser, model.RolePremium)

	e.GET("/favorites", handler.View("favorites"), customer)
	e.GET("/profile", handler.View("profile"), customer)
	e.POST("/profile", a.UpdateProfile, customer)
	e.GET("/profile/password", handler.View("change_password"), customer)
	e.POST("/profile/password", a.ChangePassword, customer)

	g := e.Group("/premium", middleware.RequireRole(gate, model.RolePremium))
	g.GET("", handler.View("premium"))
	g.GET("/collections", handler.View("premium_collections"))
	g.GET("/collections/:slug", handler.View("premium_collection"))
}
