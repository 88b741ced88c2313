package storage

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/oakline/storefront/internal/utils"
)

// Cookie stores the token in an HttpOnly cookie on the current request.
// Writes are remembered so a Load after Save in the same request sees the
// new value.
type Cookie struct {
	c      echo.Context
	name   string
	secure bool
	maxAge time.Duration

	written bool
	value   string
}

// NewCookie binds cookie storage to c.  maxAge applies when the token has no
// readable expiry; zero makes it a browser-session cookie.
func NewCookie(c echo.Context, name string, secure bool, maxAge time.Duration) *Cookie {
	return &Cookie{c: c, name: name, secure: secure, maxAge: maxAge}
}

func (s *Cookie) Load(context.Context) (string, error) {
	if s.written {
		return s.value, nil
	}
	ck, err := s.c.Cookie(s.name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return ck.Value, nil
}

func (s *Cookie) Save(_ context.Context, token string) error {
	ck := s.base(token)
	if exp, err := utils.ExpiresAt(token); err == nil {
		if !exp.After(time.Now()) {
			return ErrExpired
		}
		ck.Expires = exp
	} else if s.maxAge > 0 {
		ck.MaxAge = int(s.maxAge / time.Second)
	}
	s.c.SetCookie(ck)
	s.written, s.value = true, token
	return nil
}

func (s *Cookie) Delete(context.Context) error {
	ck := s.base("")
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	s.c.SetCookie(ck)
	s.written, s.value = true, ""
	return nil
}

func (s *Cookie) base(value string) *http.Cookie {
	return &http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// DeviceID returns the device id cookie of the request, minting and setting
// a new one when absent.
func DeviceID(c echo.Context, name string, secure bool) string {
	if ck, err := c.Cookie(name); err == nil {
		if _, perr := uuid.Parse(ck.Value); perr == nil {
			return ck.Value
		}
	}
	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((365 * 24 * time.Hour) / time.Second),
	})
	return id
}
