// Package storagekey derives backend-agnostic storage paths from
// artifact coordinates (§3, §6): the data path, its hash sidecar, and
// the two table-of-contents paths.
package storagekey

import (
	"fmt"
	"strings"

	"github.com/phax/godiver/coordinate"
	"github.com/phax/godiver/version"
)

// TopTocFilename is the name of the repository-wide top-ToC document,
// stored at the backend's root.
const TopTocFilename = "toptoc-diver.xml"

// artifactTocFilename is the name of a per-(group,artifact) ToC
// document.
const artifactTocFilename = "toc-diver.xml"

// sidecarSuffix is appended to any data key to find its hash sidecar.
const sidecarSuffix = ".sha256"

// Key is an immutable, '/'-delimited path into a storage backend.
type Key struct {
	path string
}

// Path returns the '/'-delimited path this key refers to.
func (k Key) Path() string { return k.path }

func (k Key) String() string { return k.path }

// Sidecar returns the key of the hash sidecar belonging to k.
func (k Key) Sidecar() Key { return Key{path: k.path + sidecarSuffix} }

// IsSidecar reports whether k is itself a sidecar path.
func (k Key) IsSidecar() bool { return strings.HasSuffix(k.path, sidecarSuffix) }

func groupPath(groupID string) string {
	return strings.ReplaceAll(groupID, ".", "/")
}

// ForArtifact returns the storage key for a coordinate's payload with
// the given file extension (e.g. ".xml", ".txt"). ext should include
// the leading dot.
//
//	<group-with-dots-as-slashes>/<artifact>/<version>/<artifact>-<version><ext>
func ForArtifact(c coordinate.Coordinate, ext string) Key {
	versionStr := version.Format(c.Version)
	path := fmt.Sprintf("%s/%s/%s/%s-%s%s",
		groupPath(c.GroupID), c.ArtifactID, versionStr, c.ArtifactID, versionStr, ext)
	return Key{path: path}
}

// ForArtifactToc returns the key of the per-artifact version ToC for
// (group, artifact).
func ForArtifactToc(groupID, artifactID string) Key {
	return Key{path: fmt.Sprintf("%s/%s/%s", groupPath(groupID), artifactID, artifactTocFilename)}
}

// ForTopToc returns the key of the repository-wide top-ToC.
func ForTopToc() Key {
	return Key{path: TopTocFilename}
}

// GroupArtifactOf reports whether k is a per-artifact ToC key and, if
// so, the group and artifact it belongs to.
func GroupArtifactOf(k Key) (groupID, artifactID string, ok bool) {
	if !strings.HasSuffix(k.path, "/"+artifactTocFilename) {
		return "", "", false
	}
	trimmed := strings.TrimSuffix(k.path, "/"+artifactTocFilename)
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return "", "", false
	}
	groupSegment := trimmed[:idx]
	artifactID = trimmed[idx+1:]
	if groupSegment == "" || artifactID == "" {
		return "", "", false
	}
	return strings.ReplaceAll(groupSegment, "/", "."), artifactID, true
}

// IsTopToc reports whether k addresses the repository-wide top-ToC.
func IsTopToc(k Key) bool { return k.path == TopTocFilename }

// DecodeArtifactPath reverses ForArtifact: given a payload key's path,
// it recovers the group id, artifact id and canonical version string
// embedded in it. It reports ok=false for sidecar keys, ToC keys, or
// any path too short to be an artifact payload.
func DecodeArtifactPath(k Key) (groupID, artifactID, versionStr string, ok bool) {
	if k.IsSidecar() || IsTopToc(k) {
		return "", "", "", false
	}
	if strings.HasSuffix(k.path, "/"+artifactTocFilename) {
		return "", "", "", false
	}
	segments := strings.Split(k.path, "/")
	if len(segments) < 4 {
		return "", "", "", false
	}
	n := len(segments)
	groupID = strings.Join(segments[:n-3], ".")
	artifactID = segments[n-3]
	versionStr = segments[n-2]
	if groupID == "" || artifactID == "" || versionStr == "" {
		return "", "", "", false
	}
	return groupID, artifactID, versionStr, true
}

// New wraps an already-computed, validated path. Used by backends that
// need to address a raw path (e.g. iterating a directory listing)
// without going back through coordinate math. The path must not start
// with '/'.
func New(path string) (Key, error) {
	if strings.HasPrefix(path, "/") {
		return Key{}, fmt.Errorf("storagekey: path %q must not start with '/'", path)
	}
	return Key{path: path}, nil
}
