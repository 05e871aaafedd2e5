package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/phax/godiver/storage"
	"github.com/phax/godiver/storagekey"
)

func TestWriteReadExistsDelete(t *testing.T) {
	ctx := context.Background()
	raw := New("mem1", WithWrite(), WithDelete())
	backend := storage.NewBase(raw)
	key, err := storagekey.New("a/b/1/b-1.xml")
	if err != nil {
		t.Fatal(err)
	}

	content := []byte("hello world")
	if err := backend.Write(ctx, key, content); err != nil {
		t.Fatalf("Write: %v", err)
	}

	ok, err := backend.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v, want true, nil", ok, err)
	}

	item, err := backend.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(item.Content) != string(content) {
		t.Fatalf("Read content = %q, want %q", item.Content, content)
	}
	if item.Hash != storage.VerifiedMatching {
		t.Fatalf("Hash = %v, want VerifiedMatching", item.Hash)
	}

	if err := backend.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := backend.Read(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Read after delete = %v, want ErrNotFound", err)
	}
	if ok, _ := backend.Exists(ctx, key); ok {
		t.Fatalf("Exists after delete = true, want false")
	}
}

func TestReadWithoutSidecarIsNotVerified(t *testing.T) {
	ctx := context.Background()
	raw := New("mem2")
	raw.Seed("a/b/1/b-1.xml", []byte("no sidecar here"))
	backend := storage.NewBase(raw)
	key, _ := storagekey.New("a/b/1/b-1.xml")

	item, err := backend.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if item.Hash != storage.NotVerified {
		t.Fatalf("Hash = %v, want NotVerified", item.Hash)
	}
}

func TestReadWithMismatchedSidecarIsNonMatching(t *testing.T) {
	ctx := context.Background()
	raw := New("mem3")
	raw.Seed("a/b/1/b-1.xml", []byte("payload"))
	raw.Seed("a/b/1/b-1.xml.sha256", []byte("0000000000000000000000000000000000000000000000000000000000000000"))
	backend := storage.NewBase(raw)
	key, _ := storagekey.New("a/b/1/b-1.xml")

	item, err := backend.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if item.Hash != storage.VerifiedNonMatching {
		t.Fatalf("Hash = %v, want VerifiedNonMatching", item.Hash)
	}
}

func TestWriteWithoutCapabilityIsUnsupported(t *testing.T) {
	ctx := context.Background()
	raw := New("readonly")
	backend := storage.NewBase(raw)
	key, _ := storagekey.New("a/b/1/b-1.xml")
	if err := backend.Write(ctx, key, []byte("x")); !errors.Is(err, storage.ErrUnsupported) {
		t.Fatalf("Write on read-only backend = %v, want ErrUnsupported", err)
	}
}

func TestOverwriteOfExistingArtifactRejectedByDefault(t *testing.T) {
	ctx := context.Background()
	raw := New("mem4", WithWrite())
	backend := storage.NewBase(raw)
	key, _ := storagekey.New("a/b/1/b-1.xml")

	if err := backend.Write(ctx, key, []byte("first")); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := backend.Write(ctx, key, []byte("second")); !errors.Is(err, storage.ErrValidation) {
		t.Fatalf("second Write = %v, want ErrValidation", err)
	}
	item, err := backend.Read(ctx, key)
	if err != nil || string(item.Content) != "first" {
		t.Fatalf("content after rejected overwrite = %+v, %v, want unchanged", item, err)
	}
}

func TestOverwriteAllowedWithAllowOverwrite(t *testing.T) {
	ctx := context.Background()
	raw := New("mem5", WithWrite(), WithAllowOverwrite())
	backend := storage.NewBase(raw)
	key, _ := storagekey.New("a/b/1/b-1.xml")

	if err := backend.Write(ctx, key, []byte("first")); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := backend.Write(ctx, key, []byte("second")); err != nil {
		t.Fatalf("second Write: %v", err)
	}
	item, err := backend.Read(ctx, key)
	if err != nil || string(item.Content) != "second" {
		t.Fatalf("content after allowed overwrite = %+v, %v, want %q", item, err, "second")
	}
}
