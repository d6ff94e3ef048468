package limiter

import (
	"context"
	"sync"
)

// MockLimiter is a test double that answers AllowResult and records keys
type MockLimiter struct {
	mu sync.Mutex

	AllowResult bool
	Keys        []string
	CloseCalled bool
	CloseError  error
}

// NewMockLimiter creates a mock that always answers allow
func NewMockLimiter(allow bool) *MockLimiter {
	return &MockLimiter{AllowResult: allow, Keys: []string{}}
}

// Allow implements Limiter
func (m *MockLimiter) Allow(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Keys = append(m.Keys, key)
	return m.AllowResult
}

// SetAllow changes the answer for later calls
func (m *MockLimiter) SetAllow(allow bool) {
	m.mu.Lock()
	m.AllowResult = allow
	m.mu.Unlock()
}

// Calls returns a copy of the recorded keys
func (m *MockLimiter) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, len(m.Keys))
	copy(keys, m.Keys)
	return keys
}

// Close implements Limiter
func (m *MockLimiter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CloseCalled = true
	return m.CloseError
}
