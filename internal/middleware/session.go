package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/oakline/storefront/internal/session"
	"github.com/oakline/storefront/internal/storage"
)

const sessionKey = "session"

// StorageFactory builds the durable token storage for one request.
type StorageFactory func(c echo.Context) session.TokenStorage

// CookieStorage keeps the bearer token in an HttpOnly cookie.
func CookieStorage(name string, secure bool, maxAge time.Duration) StorageFactory {
	return func(c echo.Context) session.TokenStorage {
		return storage.NewCookie(c, name, secure, maxAge)
	}
}

// RedisStorage keeps the bearer token in redis keyed by a device id cookie.
func RedisStorage(rdb redis.Cmdable, prefix, deviceCookie string, secure bool, ttl time.Duration) StorageFactory {
	return func(c echo.Context) session.TokenStorage {
		return storage.NewRedis(rdb, prefix, storage.DeviceID(c, deviceCookie, secure), ttl)
	}
}

// SessionConfig wires the Session middleware.
type SessionConfig struct {
	API     session.AuthAPI
	Storage StorageFactory
	Options []session.Option
	Log     *zap.Logger
	// Skipper bypasses hydration, e.g. for health checks.
	Skipper func(c echo.Context) bool
}

// Session hydrates a session.Store for every request: each request is one
// page load, so the stored token is read and verified before any handler or
// gate runs.  The store is available through CurrentSession.
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}
			opts := append([]session.Option{session.WithLogger(log)}, cfg.Options...)
			st := session.NewStore(cfg.API, cfg.Storage(c), opts...)
			if err := st.Initialize(c.Request().Context()); err != nil {
				log.Warn("session initialize", zap.Error(err), zap.String("request_id", GetRequestID(c)))
			}
			c.Set(sessionKey, st)
			return next(c)
		}
	}
}

// CurrentSession returns the request's store, or nil outside Session.
func CurrentSession(c echo.Context) *session.Store {
	st, _ := c.Get(sessionKey).(*session.Store)
	return st
}

// sessionState returns the request's session snapshot.  Requests that were
// never hydrated look anonymous.
func sessionState(c echo.Context) session.State {
	if st := CurrentSession(c); st != nil {
		return st.State()
	}
	return session.State{}
}

// currentUserID identifies the caller for rate limiting.
func currentUserID(c echo.Context) string {
	if st := sessionState(c); st.User != nil && st.User.ID != "" {
		return st.User.ID
	}
	return "anon"
}
