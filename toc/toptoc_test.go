package toc

import (
	"reflect"
	"testing"
)

func TestRegisterContainsUnregister(t *testing.T) {
	tree := NewTopToc()
	tree.RegisterGroupAndArtifact("com.helger", "toc-lib")

	if !tree.ContainsGroupAndArtifact("com.helger", "toc-lib") {
		t.Fatalf("expected artifact to be registered")
	}
	var groups []string
	tree.IterateAllTopLevelGroupNames(func(name string) { groups = append(groups, name) })
	if !reflect.DeepEqual(groups, []string{"com"}) {
		t.Fatalf("top-level groups = %v, want [com]", groups)
	}

	tree.UnregisterArtifact("com.helger", "toc-lib")
	if tree.ContainsGroupAndArtifact("com.helger", "toc-lib") {
		t.Fatalf("expected artifact to be unregistered")
	}
	var groupsAfter []string
	tree.IterateAllTopLevelGroupNames(func(name string) { groupsAfter = append(groupsAfter, name) })
	if len(groupsAfter) != 0 {
		t.Fatalf("expected empty group tree after last artifact removed, got %v", groupsAfter)
	}
}

func TestIterateAllSubGroupsRecursive(t *testing.T) {
	tree := NewTopToc()
	tree.RegisterGroupAndArtifact("com.helger.diver", "core")
	tree.RegisterGroupAndArtifact("com.ecosio", "test-artefact")

	type pair struct{ relative, absolute string }
	var got []pair
	tree.IterateAllSubGroups("com", func(relative, absolute string) {
		got = append(got, pair{relative, absolute})
	}, true)

	want := []pair{
		{"ecosio", "com.ecosio"},
		{"helger", "com.helger"},
		{"diver", "com.helger.diver"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("IterateAllSubGroups = %+v, want %+v", got, want)
	}
}

func TestIterateAllArtifacts(t *testing.T) {
	tree := NewTopToc()
	tree.RegisterGroupAndArtifact("a.b", "one")
	tree.RegisterGroupAndArtifact("a.b", "two")

	var got []string
	tree.IterateAllArtifacts("a.b", func(name string) { got = append(got, name) })
	if !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Fatalf("IterateAllArtifacts = %v, want [one two]", got)
	}
}

func TestTopTocMarshalParseRoundTrip(t *testing.T) {
	tree := NewTopToc()
	tree.RegisterGroupAndArtifact("com.helger.diver", "core")
	tree.RegisterGroupAndArtifact("com.ecosio", "test-artefact")

	encoded, err := tree.MarshalXML()
	if err != nil {
		t.Fatalf("MarshalXML: %v", err)
	}
	decoded, err := ParseTopToc(encoded)
	if err != nil {
		t.Fatalf("ParseTopToc: %v", err)
	}
	if !decoded.ContainsGroupAndArtifact("com.helger.diver", "core") {
		t.Fatalf("round-trip lost com.helger.diver:core")
	}
	if !decoded.ContainsGroupAndArtifact("com.ecosio", "test-artefact") {
		t.Fatalf("round-trip lost com.ecosio:test-artefact")
	}
}
