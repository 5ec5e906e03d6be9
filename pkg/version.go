package makerelease

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	modsemver "golang.org/x/mod/semver"
)

// BumpKind selects which component of a SemanticVersion a release increments.
type BumpKind int

const (
	BumpMajor BumpKind = iota
	BumpMinor
	BumpPatch
)

// BumpOptions lists the bump kinds in the order they are offered to the user.
// The first entry is the default selection.
var BumpOptions = []BumpKind{BumpMinor, BumpMajor, BumpPatch}

func (k BumpKind) String() string {
	switch k {
	case BumpMajor:
		return "major"
	case BumpMinor:
		return "minor"
	case BumpPatch:
		return "patch"
	default:
		return fmt.Sprintf("BumpKind(%d)", int(k))
	}
}

// ParseBumpKind converts "major", "minor" or "patch" into a BumpKind.
func ParseBumpKind(s string) (BumpKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major":
		return BumpMajor, nil
	case "minor":
		return BumpMinor, nil
	case "patch":
		return BumpPatch, nil
	default:
		return 0, fmt.Errorf("unknown bump kind %q (expected major, minor or patch)", s)
	}
}

// SemanticVersion is an immutable major.minor.patch triple.
type SemanticVersion struct {
	major, minor, patch uint64
}

// NewSemanticVersion builds a version from its components.
func NewSemanticVersion(major, minor, patch uint64) SemanticVersion {
	return SemanticVersion{major: major, minor: minor, patch: patch}
}

// ParseSemanticVersion parses a strict "X.Y.Z" string. A prerelease or build
// suffix is accepted and discarded; a "v" prefix or a missing component is not.
func ParseSemanticVersion(s string) (SemanticVersion, error) {
	v, err := semver.StrictNewVersion(strings.TrimSpace(s))
	if err != nil {
		return SemanticVersion{}, fmt.Errorf("invalid semantic version %q: %w", s, err)
	}
	return NewSemanticVersion(v.Major(), v.Minor(), v.Patch()), nil
}

func (v SemanticVersion) Major() uint64 { return v.major }
func (v SemanticVersion) Minor() uint64 { return v.minor }
func (v SemanticVersion) Patch() uint64 { return v.patch }

// String returns the "major.minor.patch" form used for tags and documents.
func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

// Compare returns -1, 0 or +1 as v is less than, equal to, or greater than o.
func (v SemanticVersion) Compare(o SemanticVersion) int {
	return modsemver.Compare("v"+v.String(), "v"+o.String())
}

// ComputeNext returns the version that follows current for the given bump kind.
// Lower components reset to zero.
func ComputeNext(current SemanticVersion, kind BumpKind) SemanticVersion {
	base := semver.New(current.major, current.minor, current.patch, "", "")
	var next semver.Version
	switch kind {
	case BumpMajor:
		next = base.IncMajor()
	case BumpMinor:
		next = base.IncMinor()
	default:
		next = base.IncPatch()
	}
	return NewSemanticVersion(next.Major(), next.Minor(), next.Patch())
}

// newestTag returns the greatest semver-shaped tag, accepting both "1.2.3" and
// "v1.2.3" spellings. ok is false when no tag parses.
func newestTag(tags []string) (newest SemanticVersion, ok bool) {
	var canonical []string
	for _, t := range tags {
		c := t
		if !strings.HasPrefix(c, "v") {
			c = "v" + c
		}
		if !modsemver.IsValid(c) || modsemver.Prerelease(c) != "" {
			continue
		}
		canonical = append(canonical, c)
	}
	if len(canonical) == 0 {
		return SemanticVersion{}, false
	}
	modsemver.Sort(canonical)
	v, err := ParseSemanticVersion(strings.TrimPrefix(modsemver.Canonical(canonical[len(canonical)-1]), "v"))
	if err != nil {
		return SemanticVersion{}, false
	}
	return v, true
}
