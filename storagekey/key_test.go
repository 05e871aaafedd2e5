package storagekey

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/phax/godiver/coordinate"
)

type decodedArtifactPath struct {
	GroupID, ArtifactID, VersionStr string
	OK                              bool
}

func coord(t *testing.T, s string) coordinate.Coordinate {
	t.Helper()
	c, err := coordinate.Parse(s)
	if err != nil {
		t.Fatalf("coordinate.Parse(%q): %v", s, err)
	}
	return c
}

func TestForArtifact(t *testing.T) {
	tests := []struct {
		coord string
		ext   string
		want  string
	}{
		{"com.ecosio:test-artefact:1.2.0", ".xml", "com/ecosio/test-artefact/1.2/test-artefact-1.2.xml"},
		{"a:b:4", ".xyz", "a/b/4/b-4.xyz"},
	}
	for _, test := range tests {
		got := ForArtifact(coord(t, test.coord), test.ext)
		if got.Path() != test.want {
			t.Errorf("ForArtifact(%q, %q) = %q, want %q", test.coord, test.ext, got.Path(), test.want)
		}
		if sc := got.Sidecar().Path(); sc != test.want+".sha256" {
			t.Errorf("Sidecar() = %q, want %q", sc, test.want+".sha256")
		}
	}
}

func TestDecodeArtifactPathRoundTrip(t *testing.T) {
	tests := []struct {
		coord string
		ext   string
		want  decodedArtifactPath
	}{
		{"com.ecosio:test-artefact:1.2.0", ".xml", decodedArtifactPath{"com.ecosio", "test-artefact", "1.2", true}},
		{"a:b:4", ".xyz", decodedArtifactPath{"a", "b", "4", true}},
	}
	for _, test := range tests {
		key := ForArtifact(coord(t, test.coord), test.ext)
		groupID, artifactID, versionStr, ok := DecodeArtifactPath(key)
		got := decodedArtifactPath{groupID, artifactID, versionStr, ok}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("DecodeArtifactPath(%q) mismatch (-want +got):\n%s", key.Path(), diff)
		}
	}

	if _, _, _, ok := DecodeArtifactPath(ForArtifact(coord(t, "com.ecosio:test-artefact:1.2.0"), ".xml").Sidecar()); ok {
		t.Errorf("DecodeArtifactPath should reject sidecar keys")
	}
	if _, _, _, ok := DecodeArtifactPath(ForArtifactToc("com.ecosio", "test-artefact")); ok {
		t.Errorf("DecodeArtifactPath should reject artifact toc keys")
	}
	if _, _, _, ok := DecodeArtifactPath(ForTopToc()); ok {
		t.Errorf("DecodeArtifactPath should reject the top toc key")
	}
}

func TestArtifactTocRoundTrip(t *testing.T) {
	k := ForArtifactToc("com.ecosio", "test-artefact")
	if want := "com/ecosio/test-artefact/toc-diver.xml"; k.Path() != want {
		t.Fatalf("ForArtifactToc path = %q, want %q", k.Path(), want)
	}
	group, artifact, ok := GroupArtifactOf(k)
	if !ok || group != "com.ecosio" || artifact != "test-artefact" {
		t.Fatalf("GroupArtifactOf(%v) = (%q, %q, %v), want (com.ecosio, test-artefact, true)", k, group, artifact, ok)
	}
}

func TestTopToc(t *testing.T) {
	k := ForTopToc()
	if k.Path() != "toptoc-diver.xml" {
		t.Fatalf("ForTopToc() = %q", k.Path())
	}
	if !IsTopToc(k) {
		t.Fatalf("IsTopToc() = false, want true")
	}
	if _, _, ok := GroupArtifactOf(k); ok {
		t.Fatalf("GroupArtifactOf(top-toc) should not match")
	}
}
