// Package chain implements the repository chain of §4.H: a
// prioritised read cascade over an ordered list of backends, with
// optional read-through write-back to earlier writable tiers.
package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/phax/godiver/internal/diverlog"
	"github.com/phax/godiver/storage"
	"github.com/phax/godiver/storagekey"
)

// Chain composes backends into a prioritised read cascade. storages is
// the read order; writableStorages is the subset (earlier-preferred)
// eligible for write-back on a remote hit.
type Chain struct {
	storages           []storage.Backend
	writableStorages   []storage.Backend
	cacheRemoteContent bool
}

// Option configures a Chain at construction time.
type Option func(*Chain)

// WithCacheRemoteContent overrides the default (true) of §4.H's
// cacheRemoteContent flag.
func WithCacheRemoteContent(enabled bool) Option {
	return func(c *Chain) { c.cacheRemoteContent = enabled }
}

// New builds a chain reading storages in order and write-caching into
// writableStorages on a remote hit. writableStorages must be a subset
// of storages; its elements' positions in storages determine whether a
// given hit is "remote" relative to them.
func New(storages, writableStorages []storage.Backend, opts ...Option) *Chain {
	c := &Chain{
		storages:           append([]storage.Backend(nil), storages...),
		writableStorages:   append([]storage.Backend(nil), writableStorages...),
		cacheRemoteContent: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Chain) indexOf(b storage.Backend) int {
	for i, s := range c.storages {
		if s == b {
			return i
		}
	}
	return -1
}

// Read iterates storages in order, returning the first hit. On a hit,
// if cacheRemoteContent is enabled, the payload is written back to
// every writable tier positioned earlier than the hit (§4.H step 1).
// A VerifiedNonMatching hit is excluded from write-back so corruption
// is not propagated forward (§4.H, §7 IntegrityError).
func (c *Chain) Read(ctx context.Context, key storagekey.Key) (storage.ReadItem, error) {
	for i, backend := range c.storages {
		item, err := backend.Read(ctx, key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			diverlog.Logger().Warn("chain: read failed, treating as miss and continuing",
				"backend", backend.ID(), "key", key.Path(), "error", err)
			continue
		}
		if c.cacheRemoteContent && item.Hash != storage.VerifiedNonMatching {
			c.writeBack(ctx, key, item.Content, i)
		}
		return item, nil
	}
	return storage.ReadItem{}, storage.ErrNotFound
}

func (c *Chain) writeBack(ctx context.Context, key storagekey.Key, content []byte, hitIndex int) {
	for _, w := range c.writableStorages {
		pos := c.indexOf(w)
		if pos < 0 || pos >= hitIndex {
			continue
		}
		if err := w.Write(ctx, key, content); err != nil {
			diverlog.Logger().Warn("chain: write-back to earlier tier failed",
				"backend", w.ID(), "key", key.Path(), "error", err)
		}
	}
}

// Write writes content to every writable backend in storages, in
// order, reporting overall failure if any fails (§4.H's in-scope
// choice: write to all writable tiers, not just the first).
func (c *Chain) Write(ctx context.Context, key storagekey.Key, content []byte) error {
	var firstErr error
	wrote := 0
	for _, backend := range c.storages {
		if !backend.Capabilities().Writable {
			continue
		}
		wrote++
		if err := backend.Write(ctx, key, content); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("chain: write to backend %q failed: %w", backend.ID(), err)
		}
	}
	if wrote == 0 {
		return fmt.Errorf("chain: no writable backend in chain: %w", storage.ErrUnsupported)
	}
	return firstErr
}

// Delete deletes key from every deletable backend in storages,
// reporting overall failure if any fails.
func (c *Chain) Delete(ctx context.Context, key storagekey.Key) error {
	var firstErr error
	deleted := 0
	for _, backend := range c.storages {
		if !backend.Capabilities().Deletable {
			continue
		}
		deleted++
		if err := backend.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) && firstErr == nil {
			firstErr = fmt.Errorf("chain: delete from backend %q failed: %w", backend.ID(), err)
		}
	}
	if deleted == 0 {
		return fmt.Errorf("chain: no deletable backend in chain: %w", storage.ErrUnsupported)
	}
	return firstErr
}

// Presence reports which tier held a coordinate's key, for diagnostics
// (SPEC_FULL supplemental feature: built from Exists primitives
// already specified in §4.H, no new backend capability required).
type Presence struct {
	BackendID string
	Exists    bool
}

// Stat walks every backend's Exists in chain order and reports which
// tier(s) hold key, without triggering write-back.
func (c *Chain) Stat(ctx context.Context, key storagekey.Key) ([]Presence, error) {
	out := make([]Presence, 0, len(c.storages))
	for _, backend := range c.storages {
		ok, err := backend.Exists(ctx, key)
		if err != nil {
			diverlog.Logger().Warn("chain: stat failed for backend, treating as absent",
				"backend", backend.ID(), "key", key.Path(), "error", err)
			out = append(out, Presence{BackendID: backend.ID(), Exists: false})
			continue
		}
		out = append(out, Presence{BackendID: backend.ID(), Exists: ok})
	}
	return out, nil
}
