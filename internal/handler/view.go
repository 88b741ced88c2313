package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oakline/storefront/internal/middleware"
	"github.com/oakline/storefront/internal/model"
)

// viewResp is the payload the page renderer receives: which view to draw,
// the path parameters it was reached with and the acting user, if any.
type viewResp struct {
	View   string            `json:"view"`
	Params map[string]string `json:"params,omitempty"`
	User   *model.User       `json:"user,omitempty"`
}

// View returns a handler that answers with the named view.
func View(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, newViewResp(c, name))
	}
}

// NotFound answers with the not-found view.  Authorization denials end up
// here too, so it must look exactly like a missing route.
func NotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, viewResp{View: "not_found"})
}

func newViewResp(c echo.Context, name string) viewResp {
	resp := viewResp{View: name}
	if names := c.ParamNames(); len(names) > 0 {
		resp.Params = make(map[string]string, len(names))
		for _, n := range names {
			resp.Params[n] = c.Param(n)
		}
	}
	if st := middleware.CurrentSession(c); st != nil {
		resp.User = st.State().User
	}
	return resp
}
