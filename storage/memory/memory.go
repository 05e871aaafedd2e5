// Package memory implements the in-memory storage backend (§4.E): a
// map from path to bytes, suitable for tests and as a fast local cache
// tier in a repository chain.
package memory

import (
	"context"
	"sync"

	"github.com/phax/godiver/storage"
)

// Store is a RawStore backed by a map. The zero value is not usable;
// construct with New.
type Store struct {
	id           string
	capabilities storage.Capabilities

	mu   sync.RWMutex
	data map[string][]byte
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithWrite marks the store as writable. Omit for a read-only store
// used only to seed fixed content at construction time.
func WithWrite() Option { return func(s *Store) { s.capabilities.Writable = true } }

// WithDelete marks the store as deletable.
func WithDelete() Option { return func(s *Store) { s.capabilities.Deletable = true } }

// WithAllowOverwrite lets writes replace an already-present artifact
// payload instead of the default reject-on-conflict behaviour (§4.E,
// §5). It has no effect on Seed, which always bypasses the check.
func WithAllowOverwrite() Option { return func(s *Store) { s.capabilities.AllowOverwrite = true } }

// New creates an empty in-memory backend identified by id.
func New(id string, opts ...Option) *Store {
	s := &Store{id: id, data: make(map[string][]byte)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed registers content at path directly, bypassing capability
// checks. Used to pre-populate a read-only backend at construction
// time, matching §4.E's "construction-time registration" allowance.
func (s *Store) Seed(path string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]byte(nil), content...)
	s.data[path] = cp
}

func (s *Store) ID() string                     { return s.id }
func (s *Store) Type() string                   { return "memory" }
func (s *Store) Capabilities() storage.Capabilities { return s.capabilities }

func (s *Store) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.data[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), content...), nil
}

func (s *Store) Head(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[path]
	return ok, nil
}

func (s *Store) Put(_ context.Context, path string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[path] = append([]byte(nil), content...)
	return nil
}

func (s *Store) Del(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[path]; !ok {
		return storage.ErrNotFound
	}
	delete(s.data, path)
	return nil
}
