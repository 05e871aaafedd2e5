// Package version implements the coordinate and version algebra at the
// core of the repository: static versions (major.minor.micro-qualifier),
// an extensible registry of pseudo-versions (oldest, latest-release,
// latest, ...), parsing, canonical formatting, and a total order that
// spans both kinds.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

type kind uint8

const (
	kindStatic kind = iota
	kindPseudo
)

// Version is the tagged union described in §3: either a Static version
// (major, minor, micro, qualifier) or a reference to a registered
// Pseudo-version. The zero value is the static version "0".
type Version struct {
	k        kind
	major    int
	minor    int
	micro    int
	qualifier string
	// numCount is the number of leading numeric components that were
	// actually consumed while parsing a static version; it is zero for a
	// pure-qualifier version such as "blafoo", which changes how the
	// version formats (see Format).
	numCount int
	pseudoID string
}

// NewStatic builds a Static version directly from its components,
// bypassing the parser. A zero numeric triple with a non-empty
// qualifier formats as the bare qualifier, like a parsed pure-qualifier
// version; every other combination formats as a numeric version.
func NewStatic(major, minor, micro int, qualifier string) Version {
	n := 3
	if major == 0 && minor == 0 && micro == 0 && qualifier != "" {
		n = 0
	}
	return Version{k: kindStatic, major: major, minor: minor, micro: micro, qualifier: qualifier, numCount: n}
}

// NewPseudo returns a Version referencing a registered pseudo-version by
// id. The id is not validated against the registry here. Compare treats
// an unregistered id as a pseudo of rank 0 against other pseudos, and
// panics when comparing it against a static version, since it has no
// CompareStatic.
func NewPseudo(id string) Version {
	return Version{k: kindPseudo, pseudoID: id}
}

// IsPseudo reports whether v refers to a pseudo-version.
func (v Version) IsPseudo() bool { return v.k == kindPseudo }

// IsStatic reports whether v is a static version.
func (v Version) IsStatic() bool { return v.k == kindStatic }

// PseudoID returns the pseudo-version id, or "" if v is static.
func (v Version) PseudoID() string { return v.pseudoID }

// Components returns the numeric triple of a static version. It is the
// zero triple for a pseudo-version.
func (v Version) Components() (major, minor, micro int) {
	return v.major, v.minor, v.micro
}

// Qualifier returns the qualifier string of a static version, or "" if
// there is none or v is a pseudo-version.
func (v Version) Qualifier() string { return v.qualifier }

// IsSnapshot reports whether v is a static version whose qualifier
// equals, or is suffixed by (case-insensitively), "SNAPSHOT".
func (v Version) IsSnapshot() bool {
	if v.k != kindStatic || v.qualifier == "" {
		return false
	}
	return strings.HasSuffix(strings.ToUpper(v.qualifier), "SNAPSHOT")
}

// Parse implements §4.A: a registered pseudo-version id is recognised
// first; otherwise the string is parsed as a static version, which
// always succeeds unless a numeric component has an invalid leading
// zero or does not fit in an int.
func Parse(s string) (Version, error) {
	if pv, ok := lookupPseudo(s); ok {
		return Version{k: kindPseudo, pseudoID: pv.ID}, nil
	}
	return parseStatic(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// parseStatic consumes up to three dot-separated numeric components from
// the front of s, then treats whatever remains (after stripping a single
// leading '.' or '-' separator) as the qualifier. A numeric component
// that is all digits but begins with '0' and is longer than one
// character is rejected, matching the "0.09.5" example in §8.
func parseStatic(s string) (Version, error) {
	var nums [3]int
	count := 0
	i := 0
	for count < 3 {
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			break
		}
		tok := s[start:i]
		if len(tok) > 1 && tok[0] == '0' {
			return Version{}, fmt.Errorf("version: invalid numeric component %q in %q: leading zero", tok, s)
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return Version{}, fmt.Errorf("version: invalid numeric component %q in %q: %w", tok, s, err)
		}
		nums[count] = n
		count++
		if count == 3 {
			break
		}
		if i < len(s) && s[i] == '.' && i+1 < len(s) && isDigit(s[i+1]) {
			i++
			continue
		}
		break
	}
	qualifier := ""
	if i < len(s) {
		rest := s[i:]
		if rest[0] == '.' || rest[0] == '-' {
			rest = rest[1:]
		}
		qualifier = rest
	}
	return Version{
		k:        kindStatic,
		major:    nums[0],
		minor:    nums[1],
		micro:    nums[2],
		qualifier: qualifier,
		numCount: count,
	}, nil
}

// Format returns the canonical textual representation of v (§3, §4.A):
// trailing zero numeric components are dropped and the qualifier, if
// any, is joined with a hyphen. A pure-qualifier version such as
// "blafoo" formats back to exactly "blafoo". Pseudo-versions format to
// their registered id.
func Format(v Version) string {
	if v.k == kindPseudo {
		return v.pseudoID
	}
	if v.numCount == 0 && v.qualifier != "" {
		return v.qualifier
	}
	nums := [3]int{v.major, v.minor, v.micro}
	printCount := 1
	for i := 2; i >= 0; i-- {
		if nums[i] != 0 {
			printCount = i + 1
			break
		}
	}
	var b strings.Builder
	for i := 0; i < printCount; i++ {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(nums[i]))
	}
	if v.qualifier != "" {
		b.WriteByte('-')
		b.WriteString(v.qualifier)
	}
	return b.String()
}

func (v Version) String() string { return Format(v) }

// Compare implements the total order of §4.A and §8: Static-vs-Static
// compares the numeric triple then the qualifier under the snapshot
// rule; any comparison touching a Pseudo-version delegates to that
// pseudo's declared comparator, and Pseudo-vs-Pseudo compares by
// registered rank.
func Compare(a, b Version) int {
	switch {
	case a.k == kindStatic && b.k == kindStatic:
		return compareStatic(a, b)
	case a.k == kindPseudo && b.k == kindPseudo:
		pa, _ := lookupPseudo(a.pseudoID)
		pb, _ := lookupPseudo(b.pseudoID)
		return comparePseudos(pa, pb)
	case a.k == kindPseudo:
		pa, _ := lookupPseudo(a.pseudoID)
		return pa.CompareStatic(b)
	default: // b is pseudo
		pb, _ := lookupPseudo(b.pseudoID)
		return -pb.CompareStatic(a)
	}
}

func compareStatic(a, b Version) int {
	if s := sgn(a.major - b.major); s != 0 {
		return s
	}
	if s := sgn(a.minor - b.minor); s != 0 {
		return s
	}
	if s := sgn(a.micro - b.micro); s != 0 {
		return s
	}
	return compareQualifier(a.qualifier, b.qualifier)
}

// compareQualifier implements the empty/snapshot ordering of §4.A: an
// empty qualifier sorts after every non-empty qualifier (snapshot or
// not); two non-empty qualifiers compare case-insensitively.
func compareQualifier(q1, q2 string) int {
	if q1 == q2 {
		return 0
	}
	e1, e2 := q1 == "", q2 == ""
	switch {
	case e1 && e2:
		return 0
	case e1:
		return 1
	case e2:
		return -1
	default:
		return strings.Compare(strings.ToLower(q1), strings.ToLower(q2))
	}
}

func sgn(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// Equal reports whether a and b are the same version under Compare.
func Equal(a, b Version) bool { return Compare(a, b) == 0 }

// ByVersion implements sort.Interface ordering for a slice of Versions,
// ascending under Compare.
type ByVersion []Version

func (s ByVersion) Len() int           { return len(s) }
func (s ByVersion) Less(i, j int) bool { return Compare(s[i], s[j]) < 0 }
func (s ByVersion) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
