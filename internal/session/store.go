package session

import (
	"context"
	"errors"

	"github.com/openkcm/implicit-flow/internal/serviceerr"
)

// Storage keys of the persisted record.
const (
	KeyToken      = "token"
	KeyExpiration = "exp"
	KeyState      = "state"
)

var allKeys = []string{KeyToken, KeyExpiration, KeyState}

// KeyValue is the persistent store collaborator. Set and Remove must
// apply all given keys in one atomic call.
type KeyValue interface {
	// Get returns the subset of keys that is present.
	Get(ctx context.Context, keys []string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
	Remove(ctx context.Context, keys []string) error
}

// Store persists the session record. Every error it returns wraps
// serviceerr.ErrStorage; nothing is retried.
type Store struct {
	kv KeyValue
}

func NewStore(kv KeyValue) *Store {
	return &Store{kv: kv}
}

// Exists reports whether both token and expiration are stored and non-empty.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	stored, err := s.Read(ctx)
	if err != nil {
		return false, err
	}

	return stored.Token.NonEmpty() && stored.Expiration.NonEmpty(), nil
}

// Read returns the stored record. Missing keys are reported as absent.
func (s *Store) Read(ctx context.Context) (Stored, error) {
	data, err := s.kv.Get(ctx, allKeys)
	if err != nil {
		return Stored{}, errors.Join(serviceerr.ErrStorage, err)
	}

	lookup := func(key string) Value {
		v, ok := data[key]
		if !ok {
			return Value{}
		}
		return Some(v)
	}

	return Stored{
		Token:      lookup(KeyToken),
		Expiration: lookup(KeyExpiration),
		State:      lookup(KeyState),
	}, nil
}

// Write replaces the whole record in a single call.
func (s *Store) Write(ctx context.Context, token, expiration, state string) error {
	err := s.kv.Set(ctx, map[string]string{
		KeyToken:      token,
		KeyExpiration: expiration,
		KeyState:      state,
	})
	if err != nil {
		return errors.Join(serviceerr.ErrStorage, err)
	}

	return nil
}

// Clear removes every key of the record in a single call.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, allKeys); err != nil {
		return errors.Join(serviceerr.ErrStorage, err)
	}

	return nil
}

// State reads the record and derives the UI state from it.
func (s *Store) State(ctx context.Context) (State, error) {
	stored, err := s.Read(ctx)
	if err != nil {
		return State{}, err
	}

	return StateFrom(stored), nil
}
