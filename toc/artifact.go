// Package toc implements the two XML table-of-contents documents that
// keep a repository coherent: a per-artifact version index and a
// repository-wide group/artifact tree. The XML shape follows a
// groupId/artifactId/versioning{latest,latestRelease,versions} modelling,
// including a whitespace-trimming UnmarshalXML pattern for leaf string
// fields.
package toc

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/phax/godiver/version"
)

const artifactTocNamespace = "urn:com:helger:diver:repotoc:v1.0"

// timeLayout is ISO-8601 UTC with millisecond precision (§6).
const timeLayout = "2006-01-02T15:04:05.000Z"

// trimmedString trims surrounding whitespace on unmarshal.
type trimmedString string

func (s *trimmedString) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var str string
	if err := d.DecodeElement(&str, &start); err != nil {
		return err
	}
	*s = trimmedString(strings.TrimSpace(str))
	return nil
}

// versionEntry is one <version published="..."> element.
type versionEntry struct {
	Published string         `xml:"published,attr"`
	Value     trimmedString  `xml:",chardata"`
}

// artifactTocXML is the on-disk shape of a per-artifact ToC document.
type artifactTocXML struct {
	XMLName    xml.Name `xml:"repotoc"`
	Xmlns      string   `xml:"xmlns,attr"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Versioning struct {
		Latest        string         `xml:"latest"`
		LatestRelease string         `xml:"latestRelease"`
		Versions      []versionEntry `xml:"versions>version"`
	} `xml:"versioning"`
}

// ArtifactToc is the per-(group,artifact) version index of §3/§4.F: an
// ordered mapping from Version to publication timestamp, with Latest
// and LatestRelease derived from the total order.
type ArtifactToc struct {
	GroupID    string
	ArtifactID string
	entries    map[string]entry
}

type entry struct {
	version     version.Version
	publishedAt time.Time
}

// NewArtifactToc creates an empty ToC for (groupID, artifactID).
func NewArtifactToc(groupID, artifactID string) *ArtifactToc {
	return &ArtifactToc{GroupID: groupID, ArtifactID: artifactID, entries: map[string]entry{}}
}

// Add records v as published at publishedAt. It reports Changed unless
// an identical (version, timestamp) pair was already present (§4.F:
// idempotent for identical (v, t)).
func (t *ArtifactToc) Add(v version.Version, publishedAt time.Time) (changed bool) {
	key := version.Format(v)
	publishedAt = publishedAt.UTC().Truncate(time.Millisecond)
	if existing, ok := t.entries[key]; ok && existing.publishedAt.Equal(publishedAt) {
		return false
	}
	t.entries[key] = entry{version: v, publishedAt: publishedAt}
	return true
}

// Remove deletes v from the ToC, reporting whether it was present.
func (t *ArtifactToc) Remove(v version.Version) (changed bool) {
	key := version.Format(v)
	if _, ok := t.entries[key]; !ok {
		return false
	}
	delete(t.entries, key)
	return true
}

// Contains reports whether v is recorded.
func (t *ArtifactToc) Contains(v version.Version) bool {
	_, ok := t.entries[version.Format(v)]
	return ok
}

// Len reports how many versions are recorded.
func (t *ArtifactToc) Len() int { return len(t.entries) }

// VersionTime pairs a version with its recorded publication time, the
// element type of All.
type VersionTime struct {
	Version     version.Version
	PublishedAt time.Time
}

// All returns every recorded (version, time) pair in ascending version
// order (§4.F).
func (t *ArtifactToc) All() []VersionTime {
	out := make([]VersionTime, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, VersionTime{Version: e.version, PublishedAt: e.publishedAt})
	}
	sortVersionTimes(out)
	return out
}

func sortVersionTimes(vs []VersionTime) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && version.Compare(vs[j].Version, vs[j-1].Version) < 0; j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}

// Latest returns the maximum version under the total order, across
// every recorded version including pseudo-versions that were somehow
// recorded directly.
func (t *ArtifactToc) Latest() (version.Version, bool) {
	var best version.Version
	found := false
	for _, e := range t.entries {
		if !found || version.Compare(e.version, best) > 0 {
			best, found = e.version, true
		}
	}
	return best, found
}

// LatestRelease returns the maximum version among static, non-snapshot
// versions (§3).
func (t *ArtifactToc) LatestRelease() (version.Version, bool) {
	var best version.Version
	found := false
	for _, e := range t.entries {
		if !e.version.IsStatic() || e.version.IsSnapshot() {
			continue
		}
		if !found || version.Compare(e.version, best) > 0 {
			best, found = e.version, true
		}
	}
	return best, found
}

// MarshalXML renders t in the §6 per-artifact ToC wire format.
func (t *ArtifactToc) MarshalXML() ([]byte, error) {
	doc := artifactTocXML{Xmlns: artifactTocNamespace, GroupID: t.GroupID, ArtifactID: t.ArtifactID}
	if latest, ok := t.Latest(); ok {
		doc.Versioning.Latest = version.Format(latest)
	}
	if release, ok := t.LatestRelease(); ok {
		doc.Versioning.LatestRelease = version.Format(release)
	}
	for _, vt := range t.All() {
		doc.Versioning.Versions = append(doc.Versioning.Versions, versionEntry{
			Published: vt.PublishedAt.Format(timeLayout),
			Value:     trimmedString(version.Format(vt.Version)),
		})
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("toc: marshal artifact toc: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// ParseArtifactToc decodes a per-artifact ToC document.
func ParseArtifactToc(content []byte) (*ArtifactToc, error) {
	var doc artifactTocXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("toc: parse artifact toc: %w", err)
	}
	t := NewArtifactToc(doc.GroupID, doc.ArtifactID)
	for _, ve := range doc.Versioning.Versions {
		v, err := version.Parse(string(ve.Value))
		if err != nil {
			return nil, fmt.Errorf("toc: artifact toc contains invalid version %q: %w", ve.Value, err)
		}
		published, err := time.Parse(timeLayout, ve.Published)
		if err != nil {
			return nil, fmt.Errorf("toc: artifact toc version %q has invalid published timestamp %q: %w", ve.Value, ve.Published, err)
		}
		t.entries[version.Format(v)] = entry{version: v, publishedAt: published}
	}
	return t, nil
}
