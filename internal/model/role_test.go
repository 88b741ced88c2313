package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"1":       RoleAdmin,
		"2":       RoleStaff,
		"3":       RoleUser,
		"4":       RolePremium,
		"admin":   RoleAdmin,
		"Staff":   RoleStaff,
		"PREMIUM": RolePremium,
		" user ":  RoleUser,
	}
	for in, want := range cases {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "0", "5", "-1", "owner", "999"} {
		got, err := ParseRole(bad)
		assert.Error(t, err, bad)
		assert.Equal(t, RoleUnknown, got, bad)
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range Roles {
		assert.True(t, r.Valid(), r.String())
	}
	assert.False(t, RoleUnknown.Valid())
	assert.False(t, Role(9).Valid())
}

func TestUserJSONRole(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":"7","email":"a@b.c","role":1}`), &u))
	assert.Equal(t, RoleAdmin, u.Role)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"7","email":"a@b.c","role":"premium"}`), &u))
	assert.Equal(t, RolePremium, u.Role)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"7","email":"a@b.c","role":42}`), &u))
	assert.Equal(t, RoleUnknown, u.Role)

	out, err := json.Marshal(User{ID: "1", Email: "x@y.z", Role: RoleStaff})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","email":"x@y.z","role":2}`, string(out))
}
