package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oakline/storefront/internal/access"
	"github.com/oakline/storefront/internal/model"
	"github.com/oakline/storefront/internal/nav"
)

// RequireRole returns a middleware that wraps a restricted view in the
// Gate.  roles is the set permitted at this location; the Gate also checks
// the request path against the Route Access Table.  Visitors without a
// session go to the login page; everyone else who fails a check is sent to
// the not-found page, never to a forbidden page.  The path is checked in its
// escaped form, the same form echo routes on.
func RequireRole(g *access.Gate, roles ...model.Role) echo.MiddlewareFunc {
	permitted := append([]model.Role(nil), roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := g.Check(sessionState(c), permitted, c.Request().URL.EscapedPath())
			switch d.Outcome {
			case access.Allow:
				return next(c)
			case access.Wait:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "loading"})
			default:
				return nav.Echo{C: c}.Navigate(d.Target, nav.Replace)
			}
		}
	}
}
