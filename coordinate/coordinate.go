// Package coordinate implements the Maven-style artifact identity used
// throughout the repository library: a (groupId, artifactId, version,
// classifier?) tuple, its textual form, and its validation rules.
package coordinate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phax/godiver/version"
)

// ErrValidation is returned (possibly wrapped) whenever a coordinate or
// one of its fields fails to parse.
var ErrValidation = errors.New("coordinate: validation error")

// validField reports whether s is non-empty and uses only the allowed
// character set for groupId, artifactId and classifier: ASCII letters,
// digits, '.', '_' and '-'.
func validField(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

// Coordinate is the immutable identity of a stored artifact.
type Coordinate struct {
	GroupID      string
	ArtifactID   string
	Version      version.Version
	Classifier   string
	HasClassifier bool
}

// New validates and builds a Coordinate from its components. The version
// must already have been parsed with version.Parse.
func New(groupID, artifactID string, v version.Version, classifier string, hasClassifier bool) (Coordinate, error) {
	c := Coordinate{
		GroupID:       groupID,
		ArtifactID:    artifactID,
		Version:       v,
		Classifier:    classifier,
		HasClassifier: hasClassifier,
	}
	if err := c.validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

func (c Coordinate) validate() error {
	limits := CurrentSettings()
	if !validField(c.GroupID) {
		return fmt.Errorf("%w: invalid groupId %q", ErrValidation, c.GroupID)
	}
	if len(c.GroupID) > limits.MaxGroupIDLength {
		return fmt.Errorf("%w: groupId %q exceeds max length %d", ErrValidation, c.GroupID, limits.MaxGroupIDLength)
	}
	if !validField(c.ArtifactID) {
		return fmt.Errorf("%w: invalid artifactId %q", ErrValidation, c.ArtifactID)
	}
	if len(c.ArtifactID) > limits.MaxArtifactIDLength {
		return fmt.Errorf("%w: artifactId %q exceeds max length %d", ErrValidation, c.ArtifactID, limits.MaxArtifactIDLength)
	}
	if c.HasClassifier {
		if !validField(c.Classifier) {
			return fmt.Errorf("%w: invalid classifier %q", ErrValidation, c.Classifier)
		}
		if len(c.Classifier) > limits.MaxClassifierLength {
			return fmt.Errorf("%w: classifier %q exceeds max length %d", ErrValidation, c.Classifier, limits.MaxClassifierLength)
		}
	}
	return nil
}

// Parse splits s on ':' into 3 or 4 fields and validates each. A single
// trailing ':' after the version (with nothing following) is accepted
// and treated as "no classifier"; any other malformed shape is
// rejected, including an empty field and a fifth field such as the
// one in "a:b:1::".
func Parse(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	if (len(parts) == 3 || len(parts) == 4) && parts[2] == "" {
		return Coordinate{}, fmt.Errorf("%w: empty version field", ErrValidation)
	}
	switch len(parts) {
	case 3:
		v, err := version.Parse(parts[2])
		if err != nil {
			return Coordinate{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return New(parts[0], parts[1], v, "", false)
	case 4:
		if parts[3] == "" {
			// Single trailing ':' after the version: no classifier.
			v, err := version.Parse(parts[2])
			if err != nil {
				return Coordinate{}, fmt.Errorf("%w: %v", ErrValidation, err)
			}
			return New(parts[0], parts[1], v, "", false)
		}
		v, err := version.Parse(parts[2])
		if err != nil {
			return Coordinate{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return New(parts[0], parts[1], v, parts[3], true)
	default:
		return Coordinate{}, fmt.Errorf("%w: expected 3 or 4 colon-separated fields, got %d", ErrValidation, len(parts))
	}
}

// Format returns the canonical textual form group:artifact:version[:classifier].
func (c Coordinate) Format() string {
	var b strings.Builder
	b.WriteString(c.GroupID)
	b.WriteByte(':')
	b.WriteString(c.ArtifactID)
	b.WriteByte(':')
	b.WriteString(version.Format(c.Version))
	if c.HasClassifier {
		b.WriteByte(':')
		b.WriteString(c.Classifier)
	}
	return b.String()
}

func (c Coordinate) String() string { return c.Format() }

// Equal reports whether two coordinates are identical in all four
// fields (classifier presence included).
func (c Coordinate) Equal(o Coordinate) bool {
	return c.GroupID == o.GroupID &&
		c.ArtifactID == o.ArtifactID &&
		c.HasClassifier == o.HasClassifier &&
		c.Classifier == o.Classifier &&
		version.Compare(c.Version, o.Version) == 0
}
