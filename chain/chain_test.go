package chain

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/phax/godiver/storage"
	"github.com/phax/godiver/storage/httpstore"
	"github.com/phax/godiver/storage/memory"
	"github.com/phax/godiver/storagekey"
)

// TestReadThroughWriteBack follows §8 scenario 5, with a second
// in-memory store standing in for the local filesystem tier: a key
// present only on a read-only HTTP tier is cached into the writable
// earlier tiers on read, unless cacheRemoteContent is disabled.
func TestReadThroughWriteBack(t *testing.T) {
	ctx := context.Background()
	key, err := storagekey.New("com/ecosio/test-artefact/1.2/test-artefact-1.2.xml")
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte("This file is on HTTP native")

	newChain := func(cacheRemote bool) (*Chain, *storage.Base, *storage.Base) {
		httpRaw := newFakeHTTPStore(map[string][]byte{key.Path(): payload})
		httpBackend := storage.NewBase(httpRaw)

		inMemRaw := memory.New("mem", memory.WithWrite(), memory.WithDelete())
		inMemBackend := storage.NewBase(inMemRaw)

		localRaw := memory.New("localfs-stand-in", memory.WithWrite(), memory.WithDelete())
		localBackend := storage.NewBase(localRaw)

		c := New(
			[]storage.Backend{inMemBackend, localBackend, httpBackend},
			[]storage.Backend{inMemBackend, localBackend},
			WithCacheRemoteContent(cacheRemote),
		)
		return c, inMemBackend, localBackend
	}

	t.Run("caching enabled", func(t *testing.T) {
		c, inMem, local := newChain(true)
		item, err := c.Read(ctx, key)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if string(item.Content) != string(payload) || item.Hash != storage.NotVerified {
			t.Fatalf("Read = %+v, want NotVerified payload from http", item)
		}

		memItem, err := inMem.Read(ctx, key)
		if err != nil || string(memItem.Content) != string(payload) || memItem.Hash != storage.VerifiedMatching {
			t.Fatalf("in-memory tier after write-back = %+v, %v", memItem, err)
		}
		localItem, err := local.Read(ctx, key)
		if err != nil || string(localItem.Content) != string(payload) || localItem.Hash != storage.VerifiedMatching {
			t.Fatalf("local tier after write-back = %+v, %v", localItem, err)
		}
	})

	t.Run("caching disabled", func(t *testing.T) {
		c, inMem, local := newChain(false)
		item, err := c.Read(ctx, key)
		if err != nil || string(item.Content) != string(payload) {
			t.Fatalf("Read = %+v, %v", item, err)
		}
		if _, err := inMem.Read(ctx, key); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("in-memory tier should remain empty, got err=%v", err)
		}
		if _, err := local.Read(ctx, key); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("local tier should remain empty, got err=%v", err)
		}
	})
}

func TestStatReportsPresencePerTier(t *testing.T) {
	ctx := context.Background()
	key, _ := storagekey.New("a/b/1/b-1.xyz")

	present := storage.NewBase(memory.New("present", memory.WithWrite()))
	absent := storage.NewBase(memory.New("absent", memory.WithWrite()))
	if err := present.Write(ctx, key, []byte("x")); err != nil {
		t.Fatal(err)
	}

	c := New([]storage.Backend{present, absent}, nil)
	result, err := c.Stat(ctx, key)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if len(result) != 2 || !result[0].Exists || result[1].Exists {
		t.Fatalf("Stat = %+v, want [present:true, absent:false]", result)
	}
}

// fakeHTTPStoreDoer implements httpstore.Doer backed by an in-memory map,
// so the HTTP tier in the chain test behaves like a read-only origin
// without a real network dependency.
type fakeHTTPStoreDoer struct {
	data map[string][]byte
}

func newFakeHTTPStore(data map[string][]byte) *httpstore.Store {
	return httpstore.New("http", "http://fake.invalid", httpstore.WithClient(&fakeHTTPStoreDoer{data: data}))
}

func (f *fakeHTTPStoreDoer) Do(req *http.Request) (*http.Response, error) {
	path := strings.TrimPrefix(req.URL.Path, "/")
	content, ok := f.data[path]
	resp := &http.Response{Header: make(http.Header)}
	switch req.Method {
	case http.MethodGet:
		if !ok {
			resp.StatusCode = http.StatusNotFound
			resp.Body = io.NopCloser(bytes.NewReader(nil))
			return resp, nil
		}
		resp.StatusCode = http.StatusOK
		resp.Body = io.NopCloser(bytes.NewReader(content))
	case http.MethodHead:
		if !ok {
			resp.StatusCode = http.StatusNotFound
		} else {
			resp.StatusCode = http.StatusOK
		}
		resp.Body = io.NopCloser(bytes.NewReader(nil))
	default:
		resp.StatusCode = http.StatusMethodNotAllowed
		resp.Body = io.NopCloser(bytes.NewReader(nil))
	}
	return resp, nil
}
