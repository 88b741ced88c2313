package authapi

import (
	"encoding/json"
	"strings"

	"github.com/oakline/storefront/internal/model"
)

// wireUser is the user object as the server sends it.  The id may be a JSON
// number or a string.
type wireUser struct {
	ID    flexID     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

func (w *wireUser) model() *model.User {
	if w == nil {
		return nil
	}
	return &model.User{ID: string(w.ID), Name: w.Name, Email: w.Email, Role: w.Role}
}

type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(strings.TrimSpace(n.String()))
	return nil
}
