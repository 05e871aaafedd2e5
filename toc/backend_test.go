package toc

import (
	"context"
	"testing"
	"time"

	"github.com/phax/godiver/coordinate"
	"github.com/phax/godiver/storage"
	"github.com/phax/godiver/storage/memory"
	"github.com/phax/godiver/storagekey"
)

func newTestBackend(t *testing.T) (*Backend, *XMLService) {
	t.Helper()
	raw := memory.New("mem", memory.WithWrite(), memory.WithDelete())
	base := storage.NewBase(raw)
	svc := NewXMLService()
	if err := svc.InitForRepo(context.Background(), base); err != nil {
		t.Fatalf("InitForRepo: %v", err)
	}
	fixed := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	b := NewBackend(base, svc, WithClock(func() time.Time { return fixed }))
	return b, svc
}

func TestWriteMaintainsBothTocs(t *testing.T) {
	ctx := context.Background()
	backend, svc := newTestBackend(t)

	c, err := coordinate.New("com.ecosio", "test-artefact", mustParse(t, "1.0"), "", false)
	if err != nil {
		t.Fatalf("coordinate.New: %v", err)
	}
	key := storagekey.ForArtifact(c, ".xml")

	if err := backend.Write(ctx, key, []byte("<payload/>")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	artifactTocKey := storagekey.ForArtifactToc("com.ecosio", "test-artefact")
	item, err := backend.Read(ctx, artifactTocKey)
	if err != nil {
		t.Fatalf("Read artifact toc: %v", err)
	}
	decoded, err := ParseArtifactToc(item.Content)
	if err != nil {
		t.Fatalf("ParseArtifactToc: %v", err)
	}
	if !decoded.Contains(mustParse(t, "1.0")) {
		t.Fatalf("artifact toc missing version 1.0: %+v", decoded.All())
	}

	contains, err := svc.ContainsGroupAndArtifact(ctx, "com.ecosio", "test-artefact")
	if err != nil || !contains {
		t.Fatalf("top toc should contain com.ecosio:test-artefact, got %v, %v", contains, err)
	}
}

func TestDeleteLastVersionPrunesTopToc(t *testing.T) {
	ctx := context.Background()
	backend, svc := newTestBackend(t)

	c, _ := coordinate.New("com.ecosio", "test-artefact", mustParse(t, "1.0"), "", false)
	key := storagekey.ForArtifact(c, ".xml")

	if err := backend.Write(ctx, key, []byte("<payload/>")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := backend.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	artifactTocKey := storagekey.ForArtifactToc("com.ecosio", "test-artefact")
	item, err := backend.Read(ctx, artifactTocKey)
	if err != nil {
		t.Fatalf("Read artifact toc: %v", err)
	}
	decoded, err := ParseArtifactToc(item.Content)
	if err != nil {
		t.Fatalf("ParseArtifactToc: %v", err)
	}
	if decoded.Len() != 0 {
		t.Fatalf("expected empty artifact toc after deleting last version, got %+v", decoded.All())
	}

	contains, err := svc.ContainsGroupAndArtifact(ctx, "com.ecosio", "test-artefact")
	if err != nil || contains {
		t.Fatalf("top toc should no longer contain com.ecosio:test-artefact, got %v, %v", contains, err)
	}
}
