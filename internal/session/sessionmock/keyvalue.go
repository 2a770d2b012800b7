package sessionmock

import (
	"context"
	"maps"
	"sync"

	"github.com/openkcm/implicit-flow/internal/session"
)

type KeyValueOption func(*KeyValue)

// KeyValue is an in-memory session.KeyValue recording every call.
type KeyValue struct {
	mu     sync.Mutex
	values map[string]string

	getErr, setErr, removeErr error

	gets, sets, removes int
}

var _ = session.KeyValue(&KeyValue{})

func WithValues(values map[string]string) KeyValueOption {
	return func(kv *KeyValue) { maps.Copy(kv.values, values) }
}
func WithGetError(err error) KeyValueOption {
	return func(kv *KeyValue) { kv.getErr = err }
}
func WithSetError(err error) KeyValueOption {
	return func(kv *KeyValue) { kv.setErr = err }
}
func WithRemoveError(err error) KeyValueOption {
	return func(kv *KeyValue) { kv.removeErr = err }
}

func NewInMemKeyValue(opts ...KeyValueOption) *KeyValue {
	kv := &KeyValue{values: make(map[string]string)}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}
	return kv
}

func (kv *KeyValue) Get(_ context.Context, keys []string) (map[string]string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.gets++
	if kv.getErr != nil {
		return nil, kv.getErr
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := kv.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (kv *KeyValue) Set(_ context.Context, values map[string]string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.sets++
	if kv.setErr != nil {
		return kv.setErr
	}
	maps.Copy(kv.values, values)
	return nil
}

func (kv *KeyValue) Remove(_ context.Context, keys []string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.removes++
	if kv.removeErr != nil {
		return kv.removeErr
	}
	for _, k := range keys {
		delete(kv.values, k)
	}
	return nil
}

// Snapshot returns a copy of the stored values.
func (kv *KeyValue) Snapshot() map[string]string {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return maps.Clone(kv.values)
}

// Writes returns the number of Set and Remove calls.
func (kv *KeyValue) Writes() int {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.sets + kv.removes
}

// Reads returns the number of Get calls.
func (kv *KeyValue) Reads() int {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.gets
}
