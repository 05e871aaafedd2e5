package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/phax/godiver/internal/diverlog"
	"github.com/phax/godiver/storagekey"
)

// RawStore is the narrow, transport-specific contract a concrete
// backend implements: byte-level get/put/delete/head with no knowledge
// of hash sidecars. §4.E notes that the four backend implementations
// "differ mechanically"; Base factors that mechanical hash discipline
// out so memory, localfs, httpstore and objectstore only need to
// implement this interface.
type RawStore interface {
	ID() string
	Type() string
	Capabilities() Capabilities

	// Get returns the raw bytes at path, or a wrapped ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)
	// Head reports whether path exists.
	Head(ctx context.Context, path string) (bool, error)
	// Put stores content at path, creating it or replacing it.
	Put(ctx context.Context, path string, content []byte) error
	// Del removes path. Deleting an absent path returns ErrNotFound
	// where the store can detect it; Base.Delete treats that as
	// success for the sidecar.
	Del(ctx context.Context, path string) error
}

// Base adapts a RawStore into a full Backend by adding the hash
// sidecar discipline specified in §4.B.
type Base struct {
	raw RawStore
}

// NewBase wraps raw with the mechanical hash sidecar behaviour common
// to every backend.
func NewBase(raw RawStore) *Base {
	return &Base{raw: raw}
}

func (b *Base) ID() string                  { return b.raw.ID() }
func (b *Base) Type() string                { return b.raw.Type() }
func (b *Base) Capabilities() Capabilities  { return b.raw.Capabilities() }

func sha256Hex(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// isArtifactPayloadKey reports whether key addresses a published
// artifact (as opposed to a hash sidecar or a ToC document), the only
// category subject to the immutability check in Write.
func isArtifactPayloadKey(key storagekey.Key) bool {
	_, _, _, ok := storagekey.DecodeArtifactPath(key)
	return ok
}

// Read fetches the payload, then best-effort fetches its sidecar to
// determine the HashState (§4.B).
func (b *Base) Read(ctx context.Context, key storagekey.Key) (ReadItem, error) {
	content, err := b.raw.Get(ctx, key.Path())
	if err != nil {
		return ReadItem{}, wrapErr(b.raw.ID(), "read", key.Path(), err)
	}
	state := NotVerified
	sidecar, err := b.raw.Get(ctx, key.Sidecar().Path())
	switch {
	case err == nil:
		want := strings.ToLower(strings.TrimSpace(string(sidecar)))
		if want == sha256Hex(content) {
			state = VerifiedMatching
		} else {
			state = VerifiedNonMatching
		}
	case errors.Is(err, ErrNotFound):
		// No sidecar: NotVerified, per §4.B.
	default:
		diverlog.Logger().Warn("storage: failed reading hash sidecar",
			"backend", b.raw.ID(), "key", key.Path(), "error", err)
	}
	return ReadItem{Content: content, Hash: state}, nil
}

// Exists reports whether key's payload is present.
func (b *Base) Exists(ctx context.Context, key storagekey.Key) (bool, error) {
	ok, err := b.raw.Head(ctx, key.Path())
	if err != nil {
		return false, wrapErr(b.raw.ID(), "exists", key.Path(), err)
	}
	return ok, nil
}

// Write stores content and its sha256 sidecar. If the sidecar write
// fails, Write attempts to delete the payload it just wrote so the
// store doesn't end up with an unverifiable object, then reports
// failure regardless (§4.B).
//
// Artifacts are immutable once published (§5): if key addresses an
// artifact payload (as opposed to a ToC document, which is rewritten
// on every mutation by design) and the backend lacks AllowOverwrite,
// Write rejects an attempt to replace an already-present payload with
// ErrValidation instead of silently overwriting it.
func (b *Base) Write(ctx context.Context, key storagekey.Key, content []byte) error {
	caps := b.raw.Capabilities()
	if !caps.Writable {
		return wrapErr(b.raw.ID(), "write", key.Path(), ErrUnsupported)
	}
	if !caps.AllowOverwrite && isArtifactPayloadKey(key) {
		exists, err := b.raw.Head(ctx, key.Path())
		if err != nil {
			return wrapErr(b.raw.ID(), "write", key.Path(), err)
		}
		if exists {
			return wrapErr(b.raw.ID(), "write", key.Path(), ErrValidation)
		}
	}
	if err := b.raw.Put(ctx, key.Path(), content); err != nil {
		return wrapErr(b.raw.ID(), "write", key.Path(), err)
	}
	sidecar := []byte(sha256Hex(content))
	if err := b.raw.Put(ctx, key.Sidecar().Path(), sidecar); err != nil {
		if delErr := b.raw.Del(ctx, key.Path()); delErr != nil {
			diverlog.Logger().Warn("storage: failed to roll back payload after sidecar write failure",
				"backend", b.raw.ID(), "key", key.Path(), "error", delErr)
		}
		return wrapErr(b.raw.ID(), "write-sidecar", key.Sidecar().Path(), err)
	}
	return nil
}

// Delete removes the payload and its sidecar. A missing sidecar is not
// an error (§4.B).
func (b *Base) Delete(ctx context.Context, key storagekey.Key) error {
	if !b.raw.Capabilities().Deletable {
		return wrapErr(b.raw.ID(), "delete", key.Path(), ErrUnsupported)
	}
	err := b.raw.Del(ctx, key.Path())
	if err != nil && !errors.Is(err, ErrNotFound) {
		return wrapErr(b.raw.ID(), "delete", key.Path(), err)
	}
	if sErr := b.raw.Del(ctx, key.Sidecar().Path()); sErr != nil && !errors.Is(sErr, ErrNotFound) {
		diverlog.Logger().Warn("storage: failed deleting hash sidecar",
			"backend", b.raw.ID(), "key", key.Sidecar().Path(), "error", sErr)
	}
	if err != nil {
		return wrapErr(b.raw.ID(), "delete", key.Path(), err)
	}
	return nil
}

var _ Backend = (*Base)(nil)
