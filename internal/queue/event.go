// Package queue defines the session event payload exchanged over the
// message broker and the consumer that stores it.
package queue

import (
	"time"

	"github.com/oakline/storefront/internal/session"
)

// SessionQueueName is the durable queue carrying session events.
const SessionQueueName = "session.events"

// SessionEvent is published after a session transition (login, register,
// logout, verification).  It carries enough for audit logging without
// calling the Auth API.
type SessionEvent struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	RequestID string `json:"request_id,omitempty"`
	At        string `json:"at"`
}

// FromSession converts a session.Event into its wire form.
func FromSession(ev session.Event) SessionEvent {
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return SessionEvent{
		Type:      string(ev.Type),
		UserID:    ev.UserID,
		Email:     ev.Email,
		Role:      ev.Role.String(),
		RequestID: ev.RequestID,
		At:        at.UTC().Format(time.RFC3339),
	}
}
