package demo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/danmuck/actionwire/internal/actions"
	"github.com/danmuck/actionwire/internal/protocol/schema"
)

const (
	KVPutID    = "kv.put"
	KVGetID    = "kv.get"
	KVDeleteID = "kv.delete"
	KVListID   = "kv.list"

	DefaultMaxEntries = 1024
	maxKeyLen         = 256
	maxValueLen       = 64 * 1024
)

var ErrStoreFull = errors.New("kv: store full")

// Store is a temporary in-memory key-value store. It owns its own locking;
// the dispatcher shares nothing between requests.
type Store struct {
	mu         sync.RWMutex
	data       map[string]string
	maxEntries int
}

func NewStore(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{data: make(map[string]string), maxEntries: maxEntries}
}

func (s *Store) Put(key, val string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; !exists && len(s.data) >= s.maxEntries {
		return ErrStoreFull
	}
	s.data[key] = val
	return nil
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return val, ok
}

func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	delete(s.data, key)
	return ok
}

// Keys returns keys with the given prefix, sorted.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

func keySchema() schema.Schema {
	return schema.String().MinLen(1).MaxLen(maxKeyLen)
}

// Descriptors returns the kv.* actions bound to s.
func (s *Store) Descriptors() []actions.Descriptor {
	return []actions.Descriptor{
		{
			ID:          KVPutID,
			Description: "upsert key=value",
			Args: schema.Record(
				schema.Required("key", keySchema()),
				schema.Required("value", schema.String().MaxLen(maxValueLen)),
			),
			Result:  schema.Null(),
			Handler: s.handlePut,
		},
		{
			ID:          KVGetID,
			Description: "get value by key",
			Args:        schema.Record(schema.Required("key", keySchema())),
			Result: schema.Record(
				schema.Required("found", schema.Bool()),
				schema.Required("value", schema.Nullable(schema.String())),
			),
			Handler: s.handleGet,
		},
		{
			ID:          KVDeleteID,
			Description: "delete key",
			Args:        schema.Record(schema.Required("key", keySchema())),
			Result:      schema.Record(schema.Required("deleted", schema.Bool())),
			Handler:     s.handleDelete,
		},
		{
			ID:          KVListID,
			Description: "list keys (optional prefix)",
			Args:        schema.Record(schema.Optional("prefix", schema.String().MaxLen(maxKeyLen))),
			Result:      schema.List(schema.String()),
			Handler:     s.handleList,
		},
	}
}

func (s *Store) handlePut(_ context.Context, args any) (any, error) {
	key, err := stringArg(args, "key")
	if err != nil {
		return nil, err
	}
	val, err := stringArg(args, "value")
	if err != nil {
		return nil, err
	}
	return nil, s.Put(key, val)
}

func (s *Store) handleGet(_ context.Context, args any) (any, error) {
	key, err := stringArg(args, "key")
	if err != nil {
		return nil, err
	}
	val, ok := s.Get(key)
	if !ok {
		return map[string]any{"found": false, "value": nil}, nil
	}
	return map[string]any{"found": true, "value": val}, nil
}

func (s *Store) handleDelete(_ context.Context, args any) (any, error) {
	key, err := stringArg(args, "key")
	if err != nil {
		return nil, err
	}
	return map[string]any{"deleted": s.Delete(key)}, nil
}

func (s *Store) handleList(_ context.Context, args any) (any, error) {
	prefix, err := optionalStringArg(args, "prefix")
	if err != nil {
		return nil, err
	}
	return s.Keys(prefix), nil
}
