package storage

import (
	"context"
	"sync"
)

// Memory keeps the token in process memory.  It survives for as long as the
// value does, which makes it the storage of choice for tests and CLIs.
type Memory struct {
	mu    sync.Mutex
	token string
}

// NewMemory returns a Memory pre-loaded with token (may be empty).
func NewMemory(token string) *Memory { return &Memory{token: token} }

func (m *Memory) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *Memory) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
