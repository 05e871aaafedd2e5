// Package httpstore implements the HTTP storage backend (§4.E): a path
// maps onto "<baseURL>/<path>", with GET/HEAD/PUT/DELETE carrying the
// four RawStore operations. It does not retry; retry policy belongs to
// the caller.
package httpstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/phax/godiver/storage"
)

// Doer is the subset of *http.Client this backend needs, injectable for
// tests and for callers that want custom transports, redirect policy or
// timeouts.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Store is a RawStore that proxies to an HTTP origin.
type Store struct {
	id           string
	baseURL      string
	client       Doer
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

// WithClient overrides the default *http.Client with doer.
func WithClient(doer Doer) Option { return func(s *Store) { s.client = doer } }

// New creates an HTTP-backed store rooted at baseURL (no trailing
// slash required; one is added if missing).
func New(id, baseURL string, opts ...Option) *Store {
	s := &Store{
		id:      id,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ID() string                     { return s.id }
func (s *Store) Type() string                   { return "http" }
func (s *Store) Capabilities() storage.Capabilities { return s.capabilities }

func (s *Store) url(path string) string {
	return s.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func (s *Store) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("httpstore: build %s request: %w", method, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpstore: %s %s: %w", method, s.url(path), err)
	}
	return resp, nil
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, storage.ErrNotFound
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("httpstore: GET %s: status %d", s.url(path), resp.StatusCode)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpstore: read body for %s: %w", s.url(path), err)
	}
	return content, nil
}

func (s *Store) Head(ctx context.Context, path string) (bool, error) {
	resp, err := s.do(ctx, http.MethodHead, path, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode/100 != 2 {
		return false, fmt.Errorf("httpstore: HEAD %s: status %d", s.url(path), resp.StatusCode)
	}
	return true, nil
}

func (s *Store) Put(ctx context.Context, path string, content []byte) error {
	resp, err := s.do(ctx, http.MethodPut, path, content)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("httpstore: PUT %s: status %d", s.url(path), resp.StatusCode)
	}
	return nil
}

func (s *Store) Del(ctx context.Context, path string) error {
	resp, err := s.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return storage.ErrNotFound
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("httpstore: DELETE %s: status %d", s.url(path), resp.StatusCode)
	}
	return nil
}
