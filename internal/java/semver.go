package java

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// normalizedSemver turns a raw "java -version" string like "1.8.0_391"
// or "21.0.1" into a value semver.NewVersion accepts, so installations
// can be ranked with proper version-constraint semantics instead of
// comparing bare MajorVersion integers.
func normalizedSemver(version string) (*semver.Version, error) {
	major := parseMajorVersion(version)
	if major == 0 {
		return nil, fmt.Errorf("cannot normalize version %q", version)
	}
	// We only trust the major component across vendors (update/build
	// numbering is not comparable across JDK distributions), so the
	// constraint space this module ranks on is major-version only,
	// expressed as major.0.0 for semver.Compare ordering.
	return semver.NewVersion(fmt.Sprintf("%d.0.0", major))
}

// SatisfiesMinimum reports whether inst's major version meets or
// exceeds minVersion using a semver ">=" constraint rather than a raw
// integer compare, matching jdk_check_install's tolerance for an
// installed version newer than requested.
func (inst Installation) SatisfiesMinimum(minVersion int) bool {
	v, err := normalizedSemver(inst.Version)
	if err != nil {
		return false
	}
	constraint, err := semver.NewConstraint(fmt.Sprintf(">= %d.0.0", minVersion))
	if err != nil {
		return false
	}
	return constraint.Check(v)
}

// newerThan reports whether a is newer than b using semver, falling
// back to comparing MajorVersion if either version fails to parse.
func newerThan(a, b Installation) bool {
	va, errA := normalizedSemver(a.Version)
	vb, errB := normalizedSemver(b.Version)
	if errA != nil || errB != nil {
		return a.MajorVersion > b.MajorVersion
	}
	return va.GreaterThan(vb)
}
