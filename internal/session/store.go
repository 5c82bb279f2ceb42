/**
 * @description
 * This package provides the verification-session cache: an ephemeral binding
 * from a messaging phone number to the verified account email, with a TTL.
 *
 * The cache is strictly a lookup optimization. The durable source of truth
 * for verification is the `email_verified` flag on the account, so an
 * expired entry never forces a user to re-verify; it only means the next
 * lookup goes to the database.
 */

package session

import (
	"context"
	"sync"
	"time"
)

// Store is the session-cache contract. Implementations must be safe for
// concurrent use by all in-flight message handlers.
type Store interface {
	// Get returns the cached email for a phone number, or "" if absent or expired.
	Get(ctx context.Context, phone string) (string, error)
	// Set binds phone -> email for the given TTL.
	Set(ctx context.Context, phone, email string, ttl time.Duration) error
	// Delete removes a binding.
	Delete(ctx context.Context, phone string) error
}

type memoryEntry struct {
	email     string
	expiresAt time.Time
}

// MemoryStore is an in-process Store with an injectable clock so tests can
// drive TTL expiry deterministically. It is also the production fallback
// when no Redis URL is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore. A nil clock defaults to time.Now.
func NewMemoryStore(clock func() time.Time) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     clock,
	}
}

func (s *MemoryStore) Get(ctx context.Context, phone string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[phone]
	if !ok {
		return "", nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, phone)
		return "", nil
	}
	return entry.email, nil
}

func (s *MemoryStore) Set(ctx context.Context, phone, email string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[phone] = memoryEntry{
		email:     email,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, phone)
	return nil
}
