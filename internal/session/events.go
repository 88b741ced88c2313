package session

import (
	"context"
	"time"

	"github.com/oakline/storefront/internal/model"
)

// EventType names a session lifecycle transition.
type EventType string

const (
	EventLogin        EventType = "login"
	EventRegister     EventType = "register"
	EventLogout       EventType = "logout"
	EventVerified     EventType = "verify_ok"
	EventVerifyFailed EventType = "verify_failed"
)

// Event is emitted after a session transition has been applied.
type Event struct {
	Type      EventType  `json:"type"`
	UserID    string     `json:"user_id,omitempty"`
	Email     string     `json:"email,omitempty"`
	Role      model.Role `json:"role"`
	RequestID string     `json:"request_id,omitempty"`
	At        time.Time  `json:"at"`
}

// EventSink receives session events.  Emit must not block the caller for
// long and has no way to fail the operation that produced the event.
type EventSink interface {
	Emit(ctx context.Context, ev Event)
}

func newEvent(t EventType, u *model.User) Event {
	ev := Event{Type: t, At: time.Now().UTC()}
	if u != nil {
		ev.UserID = u.ID
		ev.Email = u.Email
		ev.Role = u.Role
	}
	return ev
}

type requestIDKey struct{}

// WithRequestID tags ctx with the id of the request driving the session, so
// events emitted under it can be correlated with the request log.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id set by WithRequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
