package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"accident-dashboard-api/accidents"
)

type localSelection struct {
	sel     accidents.Selection
	expires time.Time
}

// SessionStore keeps each dashboard session's filter selection. Redis is
// used when connected, otherwise an in-process map with the same TTL.
type SessionStore struct {
	cache *CacheService
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	local map[string]localSelection
}

func NewSessionStore(cache *CacheService, ttl time.Duration) *SessionStore {
	return &SessionStore{
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
		local: make(map[string]localSelection),
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s:filters", id)
}

// Get returns the stored selection; unknown sessions get the empty selection.
func (s *SessionStore) Get(ctx context.Context, id string) (accidents.Selection, error) {
	if s.cache.Available() {
		var sel accidents.Selection
		err := s.cache.Get(ctx, sessionKey(id), &sel)
		if errors.Is(err, ErrCacheMiss) {
			return accidents.Selection{}, nil
		}
		return sel, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.local[id]
	if !ok {
		return accidents.Selection{}, nil
	}
	if s.ttl > 0 && s.now().After(entry.expires) {
		delete(s.local, id)
		return accidents.Selection{}, nil
	}
	return entry.sel, nil
}

func (s *SessionStore) Save(ctx context.Context, id string, sel accidents.Selection) error {
	if s.cache.Available() {
		return s.cache.Set(ctx, sessionKey(id), sel, s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.local[id] = localSelection{sel: sel, expires: s.now().Add(s.ttl)}
	return nil
}
