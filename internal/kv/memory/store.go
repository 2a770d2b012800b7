// Package kvmemory is an in-process session.KeyValue for a single host
// process and for tests.
package kvmemory

import (
	"context"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/openkcm/implicit-flow/internal/session"
)

// Store keeps values in a go-cache without expiration. The mutex makes
// multi-key Set and Remove atomic with respect to Get.
type Store struct {
	mu    sync.RWMutex
	cache *cache.Cache
}

var _ = session.KeyValue(&Store{})

func NewStore() *Store {
	return &Store{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *Store) Get(ctx context.Context, keys []string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok := s.cache.Get(k)
		if !ok {
			continue
		}
		if str, ok := v.(string); ok {
			values[k] = str
		}
	}

	return values, nil
}

func (s *Store) Set(ctx context.Context, values map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range values {
		s.cache.Set(k, v, cache.NoExpiration)
	}

	return nil
}

func (s *Store) Remove(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		s.cache.Delete(k)
	}

	return nil
}
