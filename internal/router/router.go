package router // package router defines how HTTP routes are registered for the storefront

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/oakline/storefront/internal/access"
	"github.com/oakline/storefront/internal/handler"
	"github.com/oakline/storefront/internal/middleware"
	"github.com/oakline/storefront/internal/redirect"
)

// Paths shared by the gate and the handlers.
const (
	LoginPath    = "/login"
	NotFoundPath = "/404"
)

// Deps carries everything route registration needs.
type Deps struct {
	Log     *zap.Logger
	Session middleware.SessionConfig
	Table   *access.Table
	Landing *redirect.Landing
	// RateLimit guards credential endpoints; nil disables limiting.
	RateLimit echo.MiddlewareFunc
	// Audit serves admin session history; nil leaves the route unregistered.
	Audit handler.SessionEventLister
}

// New builds the echo instance with the global middleware chain and every
// territory registered.
func New(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Table == nil {
		d.Table = access.DefaultTable
	}
	if d.Landing == nil {
		d.Landing = redirect.MustNew(redirect.DefaultPolicy)
	}
	if d.Session.Skipper == nil {
		d.Session.Skipper = func(c echo.Context) bool { return c.Path() == "/healthz" }
	}
	if d.Session.Log == nil {
		d.Session.Log = d.Log
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(d.Log))
	e.Use(echomw.Recover())
	e.Use(middleware.Session(d.Session))
	e.Use(middleware.Landing(d.Landing))

	gate := access.NewGate(access.NewAuthorizer(d.Table), LoginPath, NotFoundPath)
	auth := handler.NewAuthHandler(d.Landing.Home, LoginPath)

	RegisterRoutes(e)
	RegisterPublic(e)
	RegisterAuth(e, auth, d.RateLimit)
	RegisterAccount(e, gate, auth)
	RegisterStaff(e, gate)
	RegisterAdmin(e, gate, d.Audit)
	return e
}

// RegisterRoutes registers the health check and the not-found page.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET(NotFoundPath, handler.NotFound)
	e.RouteNotFound("/*", handler.NotFound)
}

// RegisterPublic registers catalog and informational pages.  They need no
// session; the Landing still steers admins and staff away from them.
func RegisterPublic(e *echo.Echo) {
	e.GET("/", handler.View("home"))
	e.GET("/products", handler.View("products"))
	e.GET("/products/:slug", handler.View("product"))
	e.GET("/about", handler.View("about"))
	e.GET("/contact", handler.View("contact"))
	e.GET("/careers", handler.View("careers"))
	e.GET("/careers/:id", handler.View("career"))
}
