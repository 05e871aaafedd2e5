// Package localfs implements the local filesystem storage backend
// (§4.E): paths map onto files relative to a root directory, writes
// create intermediate directories, and deletes best-effort remove the
// sidecar alongside the payload.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phax/godiver/storage"
)

// Store is a RawStore rooted at a directory on disk.
type Store struct {
	id           string
	root         string
	capabilities storage.Capabilities
}

// Option configures a Store at construction time.
type Option func(*Store)

func WithWrite() Option  { return func(s *Store) { s.capabilities.Writable = true } }
func WithDelete() Option { return func(s *Store) { s.capabilities.Deletable = true } }

// WithAllowOverwrite lets writes replace an already-present artifact
// payload instead of the default reject-on-conflict behaviour (§4.E,
// §5).
func WithAllowOverwrite() Option { return func(s *Store) { s.capabilities.AllowOverwrite = true } }

// New roots a backend at dir, creating it if necessary.
func New(id, dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localfs: create root %q: %w", dir, err)
	}
	s := &Store{id: id, root: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) ID() string                     { return s.id }
func (s *Store) Type() string                   { return "localfs" }
func (s *Store) Capabilities() storage.Capabilities { return s.capabilities }

// diskPath resolves a storage path to an absolute path under the root,
// rejecting attempts to escape it.
func (s *Store) diskPath(path string) (string, error) {
	cleaned := filepath.Clean("/" + path)
	full := filepath.Join(s.root, cleaned)
	if !strings.HasPrefix(full, filepath.Clean(s.root)+string(filepath.Separator)) && full != filepath.Clean(s.root) {
		return "", fmt.Errorf("localfs: path %q escapes root", path)
	}
	return full, nil
}

func (s *Store) Get(_ context.Context, path string) ([]byte, error) {
	full, err := s.diskPath(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return content, nil
}

func (s *Store) Head(_ context.Context, path string) (bool, error) {
	full, err := s.diskPath(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) Put(_ context.Context, path string, content []byte) error {
	full, err := s.diskPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("localfs: mkdir for %q: %w", path, err)
	}
	return os.WriteFile(full, content, 0o644)
}

func (s *Store) Del(_ context.Context, path string) error {
	full, err := s.diskPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return storage.ErrNotFound
		}
		return err
	}
	return nil
}
