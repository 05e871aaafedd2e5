package coordinate

import (
	"sync/atomic"

	"github.com/phax/godiver/internal/diverlog"
)

// Default field length bounds.
const (
	DefaultMaxFieldLength = 64
	MinFieldLength        = 1
)

// fieldLimits holds the process-wide, atomically-read length bounds
// applied to groupId, artifactId and classifier: a process-wide struct
// read atomically, intentionally unsynchronised with respect to
// coordinates already parsed under a previous configuration.
var fieldLimits struct {
	groupMax      atomic.Int64
	artifactMax   atomic.Int64
	classifierMax atomic.Int64
}

func init() {
	fieldLimits.groupMax.Store(DefaultMaxFieldLength)
	fieldLimits.artifactMax.Store(DefaultMaxFieldLength)
	fieldLimits.classifierMax.Store(DefaultMaxFieldLength)
}

// Settings is a snapshot of the current field-length configuration.
type Settings struct {
	MaxGroupIDLength   int
	MaxArtifactIDLength int
	MaxClassifierLength int
}

// CurrentSettings returns the length bounds currently in effect.
func CurrentSettings() Settings {
	return Settings{
		MaxGroupIDLength:    int(fieldLimits.groupMax.Load()),
		MaxArtifactIDLength: int(fieldLimits.artifactMax.Load()),
		MaxClassifierLength: int(fieldLimits.classifierMax.Load()),
	}
}

// Configure mutates the process-wide field-length settings. Any field
// left at zero keeps its previous value. Mutation after coordinates have
// already been constructed is intentionally unsynchronised: concurrent
// parsers may race with this call.
func Configure(s Settings) {
	diverlog.Logger().Warn("coordinate: mutating global length settings",
		"groupMax", s.MaxGroupIDLength,
		"artifactMax", s.MaxArtifactIDLength,
		"classifierMax", s.MaxClassifierLength)
	if s.MaxGroupIDLength > 0 {
		fieldLimits.groupMax.Store(int64(s.MaxGroupIDLength))
	}
	if s.MaxArtifactIDLength > 0 {
		fieldLimits.artifactMax.Store(int64(s.MaxArtifactIDLength))
	}
	if s.MaxClassifierLength > 0 {
		fieldLimits.classifierMax.Store(int64(s.MaxClassifierLength))
	}
}
