package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oakline/storefront/internal/model"
	"github.com/oakline/storefront/internal/session"
)

func stateFor(role model.Role) session.State {
	return session.State{
		Token:         "tok",
		User:          &model.User{ID: "1", Email: "u@oakline.test", Role: role},
		Authenticated: true,
	}
}

func TestGate(t *testing.T) {
	g := NewGate(NewAuthorizer(DefaultTable), "/login", "/404")
	staffOnly := []model.Role{model.RoleStaff}

	cases := []struct {
		name      string
		st        session.State
		permitted []model.Role
		path      string
		want      Decision
	}{
		{"loading", session.State{Loading: true, Token: "tok"}, staffOnly, "/staff", Decision{Outcome: Wait}},
		{"anonymous", session.State{}, staffOnly, "/staff", Decision{Outcome: RedirectLogin, Target: "/login"}},
		{"wrong role", stateFor(model.RoleUser), staffOnly, "/staff", Decision{Outcome: RedirectNotFound, Target: "/404"}},
		{"unknown role", stateFor(model.RoleUnknown), staffOnly, "/staff", Decision{Outcome: RedirectNotFound, Target: "/404"}},
		{"path denied", stateFor(model.RoleStaff), staffOnly, "/staff/secret", Decision{Outcome: RedirectNotFound, Target: "/404"}},
		{"allowed", stateFor(model.RoleStaff), staffOnly, "/staff/messages/9", Decision{Outcome: Allow}},
		{"empty permitted set", stateFor(model.RoleAdmin), nil, "/admin", Decision{Outcome: RedirectNotFound, Target: "/404"}},
		{"missing path", stateFor(model.RoleStaff), staffOnly, "", Decision{Outcome: RedirectNotFound, Target: "/404"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, g.Check(tc.st, tc.permitted, tc.path))
		})
	}
}
