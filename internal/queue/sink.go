package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrInvalidEvent is returned for payloads that lack a type.
var ErrInvalidEvent = errors.New("invalid session event")

// Sink stores consumed session events.
type Sink interface {
	Write(ctx context.Context, ev SessionEvent) error
}

// FileSink appends one line per event to <Dir>/session.log.
type FileSink struct {
	Dir string
	mu  sync.Mutex
}

func NewFileSink(dir string) *FileSink { return &FileSink{Dir: dir} }

// Path is the log file written to.
func (s *FileSink) Path() string { return filepath.Join(s.Dir, "session.log") }

func (s *FileSink) Write(_ context.Context, ev SessionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(s.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] session %s | user_id=%s | email=%q | role=%s | request_id=%s\n",
		ev.At, ev.Type, orDash(ev.UserID), ev.Email, ev.Role, orDash(ev.RequestID))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// MultiSink writes to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, ev SessionEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
