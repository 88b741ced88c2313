package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oakline/storefront/internal/queue"
)

// SessionEvent mirrors the 'session_events' table.
type SessionEvent struct {
	ID         uint64
	Type       string
	UserID     string
	Email      string
	Role       string
	RequestID  string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// SessionEventRepo stores session events in MySQL.  It satisfies
// queue.Sink so the consumer can write straight into it.
type SessionEventRepo struct{ DB *sql.DB }

func NewSessionEventRepo(db *sql.DB) *SessionEventRepo { return &SessionEventRepo{DB: db} }

var _ queue.Sink = (*SessionEventRepo)(nil)

// Schema creates the table when missing.
const Schema = `CREATE TABLE IF NOT EXISTS session_events (
	id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	type        VARCHAR(32)  NOT NULL,
	user_id     VARCHAR(64)  NULL,
	email       VARCHAR(255) NULL,
	role        VARCHAR(16)  NOT NULL,
	request_id  VARCHAR(64)  NULL,
	occurred_at DATETIME     NOT NULL,
	created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
	INDEX idx_session_events_user (user_id, occurred_at)
)`

// Migrate applies Schema.
func (r *SessionEventRepo) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, Schema)
	return err
}

// Write inserts one consumed event.
func (r *SessionEventRepo) Write(ctx context.Context, ev queue.SessionEvent) error {
	at, err := time.Parse(time.RFC3339, ev.At)
	if err != nil {
		return fmt.Errorf("%w: at=%q", ErrInvalidEvent, ev.At)
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO session_events (type, user_id, email, role, request_id, occurred_at) VALUES (?,?,?,?,?,?)",
		ev.Type, nullString(ev.UserID), nullString(ev.Email), ev.Role, nullString(ev.RequestID), at.UTC())
	return err
}

// ListByUser returns the newest events of a user, at most limit.
func (r *SessionEventRepo) ListByUser(ctx context.Context, userID string, limit int) ([]SessionEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,type,user_id,email,role,request_id,occurred_at,created_at FROM session_events WHERE user_id=? ORDER BY occurred_at DESC, id DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionEvent
	for rows.Next() {
		var (
			e                 SessionEvent
			uid, email, reqID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Type, &uid, &email, &e.Role, &reqID, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID, e.Email, e.RequestID = uid.String, email.String, reqID.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
