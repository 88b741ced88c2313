package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/storefront/internal/model"
	"github.com/oakline/storefront/internal/utils"
)

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestCookieLoadFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "abc"})
	c, _ := newContext(req)

	got, err := NewCookie(c, "token", false, 0).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestCookieSaveAndDelete(t *testing.T) {
	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	s := NewCookie(c, "token", true, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "opaque"))
	got, _ := s.Load(ctx)
	assert.Equal(t, "opaque", got)

	res := rec.Result()
	defer res.Body.Close()
	cookies := res.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "opaque", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	require.NoError(t, s.Delete(ctx))
	got, _ = s.Load(ctx)
	assert.Empty(t, got)
}

func TestDeviceID(t *testing.T) {
	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))
	id := DeviceID(c, "device", false)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "device="+id)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "device", Value: id})
	c2, rec2 := newContext(req)
	assert.Equal(t, id, DeviceID(c2, "device", false))
	assert.Empty(t, rec2.Header().Get("Set-Cookie"))
}

func TestCookieRejectsExpiredToken(t *testing.T) {
	c, rec := newContext(httptest.NewRequest(http.MethodPost, "/login", nil))
	s := NewCookie(c, "token", false, time.Hour)

	expired, err := utils.NewAccessToken("k", "1", "a@b.c", model.RoleUser, -time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Save(context.Background(), expired.Token), ErrExpired)
	assert.Empty(t, rec.Header().Values("Set-Cookie"))
}
