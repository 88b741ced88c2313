package model

// User is the acting user as last reported by the Auth API.  It is never
// trusted on its own: whenever a token is present the record is re-fetched
// from the server.
type User struct {
	// ID is the server-side identifier, opaque to the front end.
	ID string `json:"id"`
	// Name is the display name and may be empty.
	Name string `json:"name,omitempty"`
	// Email is the login identifier.
	Email string `json:"email"`
	// Role is the single active role.
	Role Role `json:"role"`
}
