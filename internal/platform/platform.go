// Package platform identifies the host operating system and
// architecture using the same three-way vocabulary ("windows", "osx",
// "linux") the version descriptors and rule sets use.
package platform

import (
	"fmt"
	"runtime"

	"github.com/brackenforge/mcengine/internal/engineerr"
)

// Name returns the platform's os name token as used in version.json
// rules and library natives maps.
func Name() (string, error) {
	switch runtime.GOOS {
	case "windows":
		return "windows", nil
	case "darwin":
		return "osx", nil
	case "linux":
		return "linux", nil
	default:
		return "", engineerr.New(engineerr.UnsupportedPlatform, runtime.GOOS, fmt.Errorf("unsupported platform: %s", runtime.GOOS))
	}
}

// Arch returns the architecture token used in library rule matching.
func Arch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	case "arm64":
		return "arm64"
	default:
		return runtime.GOARCH
	}
}

// Version returns the OS version string used for os.version rules.
// Unlike Name and Arch, which are fixed by the Go build target, a
// version string normally requires a syscall; no platform resolves one
// here, so it always returns "". An os.version rule pattern is then
// matched against the empty string, so any pattern that needs at least
// one character does not match.
func Version() string {
	return ""
}

// MustName is Name but panics on an unsupported platform. Used only at
// process start where there is no sensible way to proceed.
func MustName() string {
	n, err := Name()
	if err != nil {
		panic(err)
	}
	return n
}
