// Package storage defines the uniform backend contract (§4.B) every
// concrete store (in-memory, local filesystem, HTTP, object store)
// implements: read/exists/write/delete plus the content-hash sidecar
// discipline.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/phax/godiver/storagekey"
)

// Sentinel errors matching the taxonomy in §7. NotFound is a normal
// outcome of Read/Exists, never an exception. Base returns its errors
// wrapped inside a *BackendError so callers can recover the backend id
// and key with errors.As; other layers (toc, chain) wrap these
// sentinels with fmt.Errorf, so match them with errors.Is.
var (
	ErrNotFound    = errors.New("storage: not found")
	ErrUnsupported = errors.New("storage: operation not supported by this backend")
	ErrIO          = errors.New("storage: backend I/O error")
	ErrConsistency = errors.New("storage: payload write succeeded but toc update failed")
	// ErrValidation is returned when a Write targets an artifact payload
	// path that already exists on a backend without AllowOverwrite
	// (§4.E, §5): artifacts are immutable once published.
	ErrValidation = errors.New("storage: payload already exists and this backend does not allow overwrite")
)

// BackendError wraps a failure with the backend and key involved, so
// chain and toc callers can report precise diagnostics without string
// parsing (§7).
type BackendError struct {
	BackendID string
	Op        string
	Key       string
	Err       error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("storage: backend %q: %s %q: %v", e.BackendID, e.Op, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func wrapErr(backendID, op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{BackendID: backendID, Op: op, Key: key, Err: err}
}

// HashState reports how a Read's payload relates to its hash sidecar
// (§4.B).
type HashState int

const (
	// NotVerified means no sidecar was present to check against.
	NotVerified HashState = iota
	// VerifiedMatching means the sidecar was present and matched.
	VerifiedMatching
	// VerifiedNonMatching means the sidecar was present but disagreed
	// with the payload's computed hash. Higher layers (notably the
	// chain, §4.H) must treat this as a fault, not a usable cache hit.
	VerifiedNonMatching
)

func (s HashState) String() string {
	switch s {
	case NotVerified:
		return "NotVerified"
	case VerifiedMatching:
		return "VerifiedMatching"
	case VerifiedNonMatching:
		return "VerifiedNonMatching"
	default:
		return "unknown"
	}
}

// ReadItem is the result of a successful Read.
type ReadItem struct {
	Content []byte
	Hash    HashState
}

// Capabilities are the construction-time capability flags of §6: a
// backend may be constructed with or without write/delete support.
// AllowOverwrite governs only writes to artifact payload keys (§4.E,
// §5): ToC documents and hash sidecars are always rewritten in place
// regardless of this flag, since they are maintained metadata, not
// published artifact content.
type Capabilities struct {
	Writable       bool
	Deletable      bool
	AllowOverwrite bool
}

// Backend is the contract every storage implementation satisfies
// (§4.B). Read returns ErrNotFound (optionally wrapped) when the key is
// absent; Write and Delete return ErrUnsupported when the backend
// lacks the corresponding capability.
type Backend interface {
	// ID identifies this backend instance for logs and diagnostics.
	ID() string
	// Type names the backend kind: "memory", "localfs", "http", "objectstore".
	Type() string
	Capabilities() Capabilities

	Read(ctx context.Context, key storagekey.Key) (ReadItem, error)
	Exists(ctx context.Context, key storagekey.Key) (bool, error)
	Write(ctx context.Context, key storagekey.Key, content []byte) error
	Delete(ctx context.Context, key storagekey.Key) error
}
