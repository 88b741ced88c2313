// Package nav is the navigation service used for every redirect.  Replace
// navigations stand in for the current history entry; push navigations add
// one.
package nav

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ModeHeader tells script-driven clients how to apply a redirect.
const ModeHeader = "X-Navigation-Mode"

// Mode selects how a navigation affects history.
type Mode uint8

const (
	Push Mode = iota
	Replace
)

func (m Mode) String() string {
	if m == Replace {
		return "replace"
	}
	return "push"
}

// Navigator moves the client to another path.
type Navigator interface {
	Navigate(path string, mode Mode) error
}

// Echo navigates by answering the current request with a redirect.  Replace
// uses 302, which browsers follow without recording the redirecting URL;
// push uses 303 so a form POST becomes a fresh GET.
type Echo struct {
	C echo.Context
}

func (e Echo) Navigate(path string, mode Mode) error {
	e.C.Response().Header().Set(ModeHeader, mode.String())
	if mode == Replace {
		return e.C.Redirect(http.StatusFound, path)
	}
	return e.C.Redirect(http.StatusSeeOther, path)
}
