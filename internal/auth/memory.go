package auth

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemorySessionStore keeps sessions in process memory. Tokens are lost on
// restart and are not shared between instances.
type MemorySessionStore struct {
	cache *expirable.LRU[string, Session]
	ttl   time.Duration
}

// NewMemorySessionStore holds at most size sessions; the least recently
// used one is evicted beyond that.
func NewMemorySessionStore(size int, ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{
		cache: expirable.NewLRU[string, Session](size, nil, ttl),
		ttl:   ttl,
	}
}

func (s *MemorySessionStore) Create(_ context.Context, userID int64, username string) (*Session, error) {
	sess := newSession(userID, username, s.ttl)
	s.cache.Add(sess.Token, *sess)
	return sess, nil
}

func (s *MemorySessionStore) Get(_ context.Context, token string) (*Session, error) {
	sess, ok := s.cache.Get(token)
	if !ok || sess.Expired(time.Now()) {
		return nil, nil
	}
	return &sess, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.cache.Remove(token)
	return nil
}

// Len returns the number of live sessions.
func (s *MemorySessionStore) Len() int {
	return s.cache.Len()
}
