package toc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phax/godiver/internal/diverlog"
	"github.com/phax/godiver/storage"
	"github.com/phax/godiver/storagekey"
	"github.com/phax/godiver/version"
)

// Backend wraps a raw storage.Backend with the ToC-maintenance
// post-hook described in §4.F/§4.G and §9's "trait/mixin composed on
// top of the raw blob contract" design note: every payload Write
// updates the per-artifact ToC and the top-ToC; every Delete removes
// the corresponding entries, pruning the top-ToC when an artifact's
// last version disappears.
type Backend struct {
	inner  storage.Backend
	topToc Service
	now    func() time.Time

	artifactMu   sync.Mutex
	artifactLock map[string]*sync.Mutex
}

// Option configures a Backend at construction time.
type Option func(*Backend)

// WithClock overrides the wall-clock source used to stamp new ToC
// entries; intended for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// NewBackend wraps inner, maintaining ToCs via topToc. Passing
// NoopService skips only the top-ToC updates; the per-artifact ToC
// document is still written on every payload Write and Delete. The
// unwrapped inner backend performs no ToC maintenance at all.
func NewBackend(inner storage.Backend, topToc Service, opts ...Option) *Backend {
	b := &Backend{
		inner:        inner,
		topToc:       topToc,
		now:          time.Now,
		artifactLock: map[string]*sync.Mutex{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) ID() string                      { return b.inner.ID() }
func (b *Backend) Type() string                     { return b.inner.Type() }
func (b *Backend) Capabilities() storage.Capabilities { return b.inner.Capabilities() }

func (b *Backend) Read(ctx context.Context, key storagekey.Key) (storage.ReadItem, error) {
	return b.inner.Read(ctx, key)
}

func (b *Backend) Exists(ctx context.Context, key storagekey.Key) (bool, error) {
	return b.inner.Exists(ctx, key)
}

func (b *Backend) lockFor(groupID, artifactID string) *sync.Mutex {
	b.artifactMu.Lock()
	defer b.artifactMu.Unlock()
	id := groupID + "\x00" + artifactID
	mu, ok := b.artifactLock[id]
	if !ok {
		mu = &sync.Mutex{}
		b.artifactLock[id] = mu
	}
	return mu
}

// loadArtifactToc reads the existing ToC for (groupID, artifactID), or
// returns a fresh empty one if none is stored yet.
func (b *Backend) loadArtifactToc(ctx context.Context, groupID, artifactID string) (*ArtifactToc, error) {
	item, err := b.inner.Read(ctx, storagekey.ForArtifactToc(groupID, artifactID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewArtifactToc(groupID, artifactID), nil
		}
		return nil, err
	}
	return ParseArtifactToc(item.Content)
}

// Write stores content, then updates the per-artifact and top ToCs
// (§4.F step 1-4). A ToC update failure is reported as ErrConsistency
// without rolling back the already-written payload (§4.F failure
// policy, §7).
func (b *Backend) Write(ctx context.Context, key storagekey.Key, content []byte) error {
	if err := b.inner.Write(ctx, key, content); err != nil {
		return err
	}
	groupID, artifactID, versionStr, ok := storagekey.DecodeArtifactPath(key)
	if !ok {
		return nil
	}
	v, err := version.Parse(versionStr)
	if err != nil {
		diverlog.Logger().Warn("toc: payload path has unparsable version, skipping toc update",
			"key", key.Path(), "version", versionStr, "error", err)
		return nil
	}

	mu := b.lockFor(groupID, artifactID)
	mu.Lock()
	defer mu.Unlock()

	artifactToc, err := b.loadArtifactToc(ctx, groupID, artifactID)
	if err != nil {
		return b.consistencyFailure(key, "load artifact toc", err)
	}
	artifactToc.Add(v, b.now())
	encoded, err := artifactToc.MarshalXML()
	if err != nil {
		return b.consistencyFailure(key, "marshal artifact toc", err)
	}
	if err := b.inner.Write(ctx, storagekey.ForArtifactToc(groupID, artifactID), encoded); err != nil {
		return b.consistencyFailure(key, "write artifact toc", err)
	}
	if err := b.topToc.RegisterGroupAndArtifact(ctx, groupID, artifactID); err != nil {
		return b.consistencyFailure(key, "register top toc entry", err)
	}
	return nil
}

// Delete removes the payload, then removes the corresponding version
// from the per-artifact ToC, pruning the top-ToC entry when that was
// the artifact's last version (§4.F step 1-2).
func (b *Backend) Delete(ctx context.Context, key storagekey.Key) error {
	if err := b.inner.Delete(ctx, key); err != nil {
		return err
	}
	groupID, artifactID, versionStr, ok := storagekey.DecodeArtifactPath(key)
	if !ok {
		return nil
	}
	v, err := version.Parse(versionStr)
	if err != nil {
		diverlog.Logger().Warn("toc: deleted path has unparsable version, skipping toc update",
			"key", key.Path(), "version", versionStr, "error", err)
		return nil
	}

	mu := b.lockFor(groupID, artifactID)
	mu.Lock()
	defer mu.Unlock()

	artifactToc, err := b.loadArtifactToc(ctx, groupID, artifactID)
	if err != nil {
		return b.consistencyFailure(key, "load artifact toc", err)
	}
	if !artifactToc.Remove(v) {
		return nil
	}
	encoded, err := artifactToc.MarshalXML()
	if err != nil {
		return b.consistencyFailure(key, "marshal artifact toc", err)
	}
	if err := b.inner.Write(ctx, storagekey.ForArtifactToc(groupID, artifactID), encoded); err != nil {
		return b.consistencyFailure(key, "write artifact toc", err)
	}
	if artifactToc.Len() == 0 {
		if err := b.topToc.UnregisterArtifact(ctx, groupID, artifactID); err != nil {
			return b.consistencyFailure(key, "unregister top toc entry", err)
		}
	}
	return nil
}

func (b *Backend) consistencyFailure(key storagekey.Key, op string, cause error) error {
	diverlog.Logger().Warn("toc: payload mutation succeeded but toc update failed; store is now inconsistent",
		"backend", b.inner.ID(), "key", key.Path(), "op", op, "error", cause)
	return fmt.Errorf("%w: %s: %v", storage.ErrConsistency, op, cause)
}

var _ storage.Backend = (*Backend)(nil)
