// Package devotp keeps the last issued code per channel value so GET /dev/otp can echo it.
// It is wired only when OTP_RETURN_TO_CLIENT is enabled, which config forbids in production.
package devotp

import (
	"context"
	"sync"
	"time"
)

// Store holds plain codes by channel value.
type Store interface {
	Put(ctx context.Context, value, code string, expiresAt time.Time)
	// Get returns the code for value; ok is false when missing or expired.
	Get(ctx context.Context, value string) (code string, ok bool)
	Delete(ctx context.Context, value string)
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store. Expired entries are dropped lazily on Get.
type MemoryStore struct {
	mu   sync.Mutex
	m    map[string]entry
	nowF func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]entry), nowF: func() time.Time { return time.Now().UTC() }}
}

// SetClock overrides the time source.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.nowF = now
	s.mu.Unlock()
}

func (s *MemoryStore) Put(ctx context.Context, value, code string, expiresAt time.Time) {
	s.mu.Lock()
	s.m[value] = entry{code: code, expiresAt: expiresAt}
	s.mu.Unlock()
}

func (s *MemoryStore) Get(ctx context.Context, value string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[value]
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(s.nowF()) {
		delete(s.m, value)
		return "", false
	}
	return e.code, true
}

func (s *MemoryStore) Delete(ctx context.Context, value string) {
	s.mu.Lock()
	delete(s.m, value)
	s.mu.Unlock()
}
