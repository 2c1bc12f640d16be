// Package release models semantic-version bumps: the bump a set of changes
// requires and the bump actually present between two version numbers.
package release

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver"

	semerrors "semcheck/internal/errors"
)

// Type is a semantic-version increment. The zero value is NotChanged.
// Types are totally ordered: NotChanged < Patch < Minor < Major.
type Type int

const (
	NotChanged Type = iota
	Patch
	Minor
	Major
)

var typeNames = map[Type]string{
	NotChanged: "none",
	Patch:      "patch",
	Minor:      "minor",
	Major:      "major",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("release.Type(%d)", int(t))
}

// Parse converts "major", "minor", "patch" or "none" (case-insensitive).
func Parse(s string) (Type, error) {
	for t, name := range typeNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return NotChanged, fmt.Errorf("unknown release type %q (want major, minor or patch)", s)
}

// Max returns the larger of two types.
func Max(a, b Type) Type {
	if a > b {
		return a
	}
	return b
}

// Satisfies reports whether a detected bump is large enough for a required one.
func (t Type) Satisfies(required Type) bool {
	return t >= required
}

func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Detect classifies the delta between two version numbers.
//
// Versions below 1.0.0 shift by one level: in 0.y.z a change of y is Major
// and a change of z is Minor, and in 0.0.z every change is Major. A
// prerelease current version carries no compatibility promise and counts as
// Major. A current version lower than the baseline is an error.
func Detect(baseline, current string) (Type, error) {
	old, err := parseVersion("baseline", baseline)
	if err != nil {
		return NotChanged, err
	}
	cur, err := parseVersion("current", current)
	if err != nil {
		return NotChanged, err
	}

	if cur.LessThan(old) {
		return NotChanged, semerrors.New(semerrors.VersionInvalid,
			fmt.Sprintf("current version %s is lower than baseline version %s", cur, old), nil)
	}
	if cur.Equal(old) {
		return NotChanged, nil
	}
	if cur.Prerelease() != "" {
		return Major, nil
	}

	switch {
	case cur.Major() != old.Major():
		return Major, nil
	case old.Major() == 0 && old.Minor() == 0:
		return Major, nil
	case cur.Minor() != old.Minor():
		if old.Major() == 0 {
			return Major, nil
		}
		return Minor, nil
	case cur.Patch() != old.Patch():
		if old.Major() == 0 {
			return Minor, nil
		}
		return Patch, nil
	default:
		// Only the baseline prerelease or build metadata differs.
		return Patch, nil
	}
}

func parseVersion(side, v string) (*semver.Version, error) {
	parsed, err := semver.NewVersion(strings.TrimSpace(v))
	if err != nil {
		return nil, semerrors.New(semerrors.VersionInvalid,
			fmt.Sprintf("invalid %s version %q", side, v), err)
	}
	return parsed, nil
}
