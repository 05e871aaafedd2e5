package version

import (
	"fmt"
	"sync"
)

// PseudoVersion is a registered named sentinel that participates in the
// same total order as static versions (§3, §4.A). CompareStatic reports
// the sign of (this pseudo - the given static version). Rank places the
// pseudo in the total order relative to every other registered pseudo;
// ties are broken by comparing IDs, so distinct pseudos should use
// distinct ranks.
type PseudoVersion struct {
	ID            string
	CompareStatic func(Version) int
	Rank          int64
}

const (
	rankOldest        int64 = -1 << 62
	rankLatestRelease int64 = 1<<62 - 1
	rankLatest        int64 = 1 << 62
)

var registry struct {
	mu   sync.RWMutex
	byID map[string]PseudoVersion
}

func init() {
	registry.byID = make(map[string]PseudoVersion)
	mustRegister(PseudoVersion{
		ID:            "oldest",
		CompareStatic: func(Version) int { return -1 },
		Rank:          rankOldest,
	})
	mustRegister(PseudoVersion{
		ID:            "latest-release",
		CompareStatic: func(Version) int { return 1 },
		Rank:          rankLatestRelease,
	})
	mustRegister(PseudoVersion{
		ID:            "latest",
		CompareStatic: func(Version) int { return 1 },
		Rank:          rankLatest,
	})
}

func mustRegister(pv PseudoVersion) {
	if err := RegisterPseudoVersion(pv); err != nil {
		panic(err)
	}
}

// RegisterPseudoVersion adds a custom pseudo-version to the process-wide
// registry. Registration is expected to happen once at startup (§3); the
// registry is treated as immutable once readers start parsing versions
// against it.
func RegisterPseudoVersion(pv PseudoVersion) error {
	if pv.ID == "" {
		return fmt.Errorf("version: pseudo-version id must not be empty")
	}
	for _, c := range pv.ID {
		if !(c >= 'a' && c <= 'z') && c != '-' {
			return fmt.Errorf("version: pseudo-version id %q must be lowercase ASCII", pv.ID)
		}
	}
	if pv.CompareStatic == nil {
		return fmt.Errorf("version: pseudo-version %q must declare CompareStatic", pv.ID)
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.byID[pv.ID] = pv
	return nil
}

func lookupPseudo(id string) (PseudoVersion, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	pv, ok := registry.byID[id]
	return pv, ok
}

// comparePseudos returns the sign of (p1 - p2) using their registered
// rank, breaking ties on ID for a total, if arbitrary, order between
// pseudos that were registered with equal rank.
func comparePseudos(p1, p2 PseudoVersion) int {
	switch {
	case p1.Rank < p2.Rank:
		return -1
	case p1.Rank > p2.Rank:
		return 1
	case p1.ID < p2.ID:
		return -1
	case p1.ID > p2.ID:
		return 1
	default:
		return 0
	}
}
