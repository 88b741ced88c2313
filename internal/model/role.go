package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Role is the identity class of the acting user.  The numeric values are the
// discriminators used by the Auth API; RoleUnknown is the zero value and is
// never granted access to anything.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleStaff
	RoleUser
	RolePremium
)

// Roles lists every valid role in discriminator order.
var Roles = []Role{RoleAdmin, RoleStaff, RoleUser, RolePremium}

// Valid reports whether r is one of the four enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleUser, RolePremium:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleStaff:
		return "STAFF"
	case RoleUser:
		return "USER"
	case RolePremium:
		return "PREMIUM"
	default:
		return "UNKNOWN"
	}
}

// ParseRole accepts either the numeric discriminator ("1".."4") or the role
// name in any case.  Anything else yields RoleUnknown and an error.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if r := Role(n); n >= 0 && n <= 255 && r.Valid() {
			return r, nil
		}
		return RoleUnknown, fmt.Errorf("unknown role discriminator %d", n)
	}
	for _, r := range Roles {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

// MarshalJSON writes the numeric discriminator.
func (r Role) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(r))), nil
}

// UnmarshalJSON reads a discriminator or a role name.  Unrecognised values
// decode to RoleUnknown rather than failing, so a user record with an
// unexpected role still loads and is simply denied everywhere.
func (r *Role) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*r = Role(n)
		if n < 0 || n > 255 || !r.Valid() {
			*r = RoleUnknown
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("role: %w", err)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		parsed = RoleUnknown
	}
	*r = parsed
	return nil
}
