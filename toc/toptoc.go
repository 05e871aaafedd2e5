package toc

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

const topTocNamespace = "urn:com:helger:diver:repotoptoc:v1.0"

// groupNode is one segment of the group tree (§3: "com.helger" is two
// nested nodes "com" -> "helger").
type groupNode struct {
	name      string
	groups    map[string]*groupNode
	artifacts map[string]bool
}

func newGroupNode(name string) *groupNode {
	return &groupNode{name: name, groups: map[string]*groupNode{}, artifacts: map[string]bool{}}
}

// TopToc is the repository-wide group/artifact tree of §3/§4.G.
type TopToc struct {
	root *groupNode
}

// NewTopToc creates an empty top-ToC tree.
func NewTopToc() *TopToc { return &TopToc{root: newGroupNode("")} }

func splitGroup(groupID string) []string {
	return strings.Split(groupID, ".")
}

// RegisterGroupAndArtifact ensures groupID's path exists and artifactID
// is registered under it.
func (t *TopToc) RegisterGroupAndArtifact(groupID, artifactID string) {
	node := t.root
	for _, seg := range splitGroup(groupID) {
		child, ok := node.groups[seg]
		if !ok {
			child = newGroupNode(seg)
			node.groups[seg] = child
		}
		node = child
	}
	node.artifacts[artifactID] = true
}

// UnregisterArtifact removes artifactID from groupID, then prunes every
// group node on that path, from the deepest upward, that is left with
// no artifacts and no subgroups.
func (t *TopToc) UnregisterArtifact(groupID, artifactID string) {
	node := t.root
	path := []*groupNode{node}
	for _, seg := range splitGroup(groupID) {
		child, ok := node.groups[seg]
		if !ok {
			return
		}
		path = append(path, child)
		node = child
	}
	delete(node.artifacts, artifactID)
	// Prune now-empty trailing group nodes.
	for i := len(path) - 1; i > 0; i-- {
		n := path[i]
		if len(n.artifacts) == 0 && len(n.groups) == 0 {
			delete(path[i-1].groups, n.name)
		} else {
			break
		}
	}
}

// ContainsGroupAndArtifact reports whether artifactID is registered
// under groupID.
func (t *TopToc) ContainsGroupAndArtifact(groupID, artifactID string) bool {
	node := t.root
	for _, seg := range splitGroup(groupID) {
		child, ok := node.groups[seg]
		if !ok {
			return false
		}
		node = child
	}
	return node.artifacts[artifactID]
}

// IterateAllTopLevelGroupNames invokes consumer for each first-level
// group segment, sorted for deterministic output.
func (t *TopToc) IterateAllTopLevelGroupNames(consumer func(name string)) {
	for _, name := range sortedKeys(t.root.groups) {
		consumer(name)
	}
}

// IterateAllSubGroups walks groupID's descendants. consumer receives
// the relative name (single segment, direct children only when
// recursive is false) and the absolute dotted group name. With
// recursive set, descendants are yielded depth-first (§4.G).
func (t *TopToc) IterateAllSubGroups(groupID string, consumer func(relativeName, absoluteName string), recursive bool) {
	node := t.root
	for _, seg := range splitGroup(groupID) {
		child, ok := node.groups[seg]
		if !ok {
			return
		}
		node = child
	}
	t.walkSubGroups(node, groupID, consumer, recursive)
}

func (t *TopToc) walkSubGroups(node *groupNode, absolutePrefix string, consumer func(relativeName, absoluteName string), recursive bool) {
	for _, name := range sortedKeys(node.groups) {
		child := node.groups[name]
		absolute := name
		if absolutePrefix != "" {
			absolute = absolutePrefix + "." + name
		}
		consumer(name, absolute)
		if recursive {
			t.walkSubGroups(child, absolute, consumer, recursive)
		}
	}
}

// IterateAllArtifacts invokes consumer for each artifact directly
// registered under groupID, sorted for deterministic output.
func (t *TopToc) IterateAllArtifacts(groupID string, consumer func(artifactID string)) {
	node := t.root
	for _, seg := range splitGroup(groupID) {
		child, ok := node.groups[seg]
		if !ok {
			return
		}
		node = child
	}
	names := make([]string, 0, len(node.artifacts))
	for name := range node.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		consumer(name)
	}
}

func sortedKeys(m map[string]*groupNode) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// groupXML is the recursive wire shape of §6's top-ToC document.
type groupXML struct {
	Name      string      `xml:"name,attr"`
	Groups    []groupXML  `xml:"group"`
	Artifacts []artifactXML `xml:"artifact"`
}

type artifactXML struct {
	Name string `xml:"name,attr"`
}

type topTocXML struct {
	XMLName xml.Name   `xml:"repotoptoc"`
	Xmlns   string     `xml:"xmlns,attr"`
	Groups  []groupXML `xml:"group"`
}

func toGroupXML(node *groupNode) groupXML {
	gx := groupXML{Name: node.name}
	for _, name := range sortedKeys(node.groups) {
		gx.Groups = append(gx.Groups, toGroupXML(node.groups[name]))
	}
	artifactNames := make([]string, 0, len(node.artifacts))
	for name := range node.artifacts {
		artifactNames = append(artifactNames, name)
	}
	sort.Strings(artifactNames)
	for _, name := range artifactNames {
		gx.Artifacts = append(gx.Artifacts, artifactXML{Name: name})
	}
	return gx
}

func fromGroupXML(gx groupXML) *groupNode {
	node := newGroupNode(gx.Name)
	for _, childXML := range gx.Groups {
		node.groups[childXML.Name] = fromGroupXML(childXML)
	}
	for _, a := range gx.Artifacts {
		node.artifacts[a.Name] = true
	}
	return node
}

// MarshalXML renders t in the §6 top-Toc wire format.
func (t *TopToc) MarshalXML() ([]byte, error) {
	doc := topTocXML{Xmlns: topTocNamespace}
	for _, name := range sortedKeys(t.root.groups) {
		doc.Groups = append(doc.Groups, toGroupXML(t.root.groups[name]))
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("toc: marshal top toc: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// ParseTopToc decodes a top-ToC document.
func ParseTopToc(content []byte) (*TopToc, error) {
	var doc topTocXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("toc: parse top toc: %w", err)
	}
	t := NewTopToc()
	for _, gx := range doc.Groups {
		t.root.groups[gx.Name] = fromGroupXML(gx)
	}
	return t, nil
}
