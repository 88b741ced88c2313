package router

import (
	"github.com/labstack/echo/v4"

	"github.com/oakline/storefront/internal/access"
	"github.com/oakline/storefront/internal/handler"
	"github.com/oakline/storefront/internal/middleware"
	"github.com/oakline/storefront/internal/model"
)

// RegisterAdmin registers the admin back office.  Every route requires the
// Admin role.
func RegisterAdmin(e *echo.Echo, gate *access.Gate, audit handler.SessionEventLister) {
	g := e.Group("/admin", middleware.RequireRole(gate, model.RoleAdmin))

	g.GET("", handler.View("admin_dashboard"))

	// ---- Products ----
	g.GET("/products", handler.View("admin_products"))
	g.GET("/products/new", handler.View("admin_product_new"))
	g.GET("/products/:id/edit", handler.View("admin_product_edit"))

	// ---- Jobs ----
	g.GET("/jobs", handler.View("admin_jobs"))
	g.GET("/jobs/new", handler.View("admin_job_new"))
	g.GET("/jobs/:id/edit", handler.View("admin_job_edit"))

	// ---- Applications and messages ----
	g.GET("/applications", handler.View("admin_applications"))
	g.GET("/applications/:id", handler.View("admin_application"))
	g.GET("/messages", handler.View("admin_messages"))
	g.GET("/messages/:id", handler.View("admin_message"))

	g.GET("/users", handler.View("admin_users"))
	if audit != nil {
		g.GET("/users/:id/sessions", handler.NewAuditHandler(audit).UserSessions)
	}
	g.GET("/profile", handler.View("admin_profile"))
}
