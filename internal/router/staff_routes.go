package router

import (
	"github.com/labstack/echo/v4"

	"github.com/oakline/storefront/internal/access"
	"github.com/oakline/storefront/internal/handler"
	"github.com/oakline/storefront/internal/middleware"
	"github.com/oakline/storefront/internal/model"
)

// RegisterStaff registers the staff back office.
func RegisterStaff(e *echo.Echo, gate *access.Gate) {
	g := e.Group("/staff", middleware.RequireRole(gate, model.RoleStaff))

	g.GET("", handler.View("staff_dashboard"))
	g.GET("/products", handler.View("staff_products"))
	g.GET("/products/:id/edit", handler.View("staff_product_edit"))
	g.GET("/applications", handler.View("staff_applications"))
	g.GET("/applications/:id", handler.View("staff_application"))
	g.GET("/messages", handler.View("staff_messages"))
	g.GET("/messages/:id", handler.View("staff_message"))
	g.GET("/profile", handler.View("staff_profile"))
}
