// Package kvvalkey stores the session record in ValKey so that every UI
// surface and the redirect host observe the same state.
package kvvalkey

import (
	"context"
	"fmt"
	"strings"

	"github.com/valkey-io/valkey-go"

	"github.com/openkcm/implicit-flow/internal/session"
)

type Store struct {
	valkey valkey.Client
	prefix string
}

var _ = session.KeyValue(&Store{})

func NewStore(valkeyClient valkey.Client, prefix string) *Store {
	prefix = strings.TrimSuffix(prefix, ":")
	return &Store{
		valkey: valkeyClient,
		prefix: prefix,
	}
}

func (s *Store) Get(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}

	replies, err := s.valkey.Do(ctx, s.valkey.B().Mget().Key(s.keys(keys)...).Build()).ToArray()
	if err != nil {
		return nil, fmt.Errorf("executing mget command: %w", err)
	}

	if len(replies) != len(keys) {
		return nil, fmt.Errorf("mget returned %d values for %d keys", len(replies), len(keys))
	}

	values := make(map[string]string, len(keys))
	for i, reply := range replies {
		if reply.IsNil() {
			continue
		}

		value, err := reply.ToString()
		if err != nil {
			return nil, fmt.Errorf("decoding value of %s: %w", keys[i], err)
		}
		values[keys[i]] = value
	}

	return values, nil
}

// Set writes all values with a single MSET, which ValKey applies atomically.
func (s *Store) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	cmd := s.valkey.B().Mset().KeyValue()
	for k, v := range values {
		cmd = cmd.KeyValue(s.key(k), v)
	}

	if err := s.valkey.Do(ctx, cmd.Build()).Error(); err != nil {
		return fmt.Errorf("executing mset command: %w", err)
	}

	return nil
}

// Remove deletes all keys with a single DEL.
func (s *Store) Remove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := s.valkey.Do(ctx, s.valkey.B().Del().Key(s.keys(keys)...).Build()).Error(); err != nil {
		return fmt.Errorf("executing del command: %w", err)
	}

	return nil
}

func (s *Store) key(k string) string {
	if s.prefix == "" {
		return k
	}

	return s.prefix + ":" + k
}

func (s *Store) keys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.key(k))
	}

	return out
}
