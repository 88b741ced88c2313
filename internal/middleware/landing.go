package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oakline/storefront/internal/nav"
	"github.com/oakline/storefront/internal/redirect"
)

// Landing applies the Landing Redirector to every page navigation (GET and
// HEAD).  Form posts are actions, not navigations, and pass through.
func Landing(l *redirect.Landing) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m := c.Request().Method
			if m != http.MethodGet && m != http.MethodHead {
				return next(c)
			}
			path := c.Request().URL.EscapedPath()
			if target, ok := l.Decide(sessionState(c), path); ok && target != path {
				return nav.Echo{C: c}.Navigate(target, nav.Replace)
			}
			return next(c)
		}
	}
}
