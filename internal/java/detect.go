// Package java handles Java runtime detection and provisioning: finding
// an existing installation that satisfies a version's required major
// version, and downloading a managed Adoptium build when none exists.
package java

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/brackenforge/mcengine/internal/platform"
)

// versionRegex pulls the quoted version token out of a `java -version`
// banner line, e.g. `openjdk version "21.0.1" 2023-10-17`.
var versionRegex = regexp.MustCompile(`(?:java|openjdk) version "([^"]+)"`)

// vendorMarkers maps a lowercased substring of the version banner to the
// vendor name it identifies. Checked in order, so more specific vendors
// that also happen to print "openjdk" somewhere in their banner (most of
// them do) must precede the generic OpenJDK fallback.
var vendorMarkers = []struct {
	substr string
	vendor string
}{
	{"graalvm", "GraalVM"},
	{"zulu", "Azul Zulu"},
	{"adoptium", "Eclipse Adoptium"},
	{"temurin", "Eclipse Adoptium"},
	{"oracle", "Oracle"},
	{"microsoft", "Microsoft"},
	{"openjdk", "OpenJDK"},
}

// Installation is one Java runtime found on the host.
type Installation struct {
	Path         string
	Version      string
	MajorVersion int
	Is64Bit      bool
	Vendor       string
}

// Detector locates Java installations via JAVA_HOME, PATH, and a set of
// platform-conventional install directories.
type Detector struct {
	searchDirs []string
}

// NewDetector builds a Detector pre-seeded with this platform's
// conventional JDK install locations.
func NewDetector() *Detector {
	return &Detector{searchDirs: defaultSearchDirs()}
}

// FindAll returns every distinct Java installation the Detector can
// locate, JAVA_HOME and PATH first since those reflect an explicit user
// choice, then whatever turns up under the conventional directories.
func (d *Detector) FindAll() []Installation {
	var found []Installation
	seen := make(map[string]bool)

	add := func(inst *Installation) {
		if inst == nil || seen[inst.Path] {
			return
		}
		found = append(found, *inst)
		seen[inst.Path] = true
	}

	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		add(d.probeDir(javaHome))
	}
	if javaPath, err := exec.LookPath("java"); err == nil {
		add(d.probeBinary(javaPath))
	}
	for _, dir := range d.searchDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			add(d.probeDir(filepath.Join(dir, entry.Name())))
		}
	}

	return found
}

// FindBest picks the installation closest to minVersion without going
// under it (the least-surprising match for a version that only declares
// a minimum), falling back to the newest 64-bit installation available
// when nothing meets minVersion.
func (d *Detector) FindBest(minVersion int) *Installation {
	return selectBest(d.FindAll(), minVersion)
}

// selectBest is FindBest's pure selection step, split out so it can be
// exercised directly against a fabricated installation list.
func selectBest(installations []Installation, minVersion int) *Installation {
	var closest, newest *Installation
	for i := range installations {
		inst := &installations[i]
		if !inst.Is64Bit {
			continue
		}
		if newest == nil || newerThan(*inst, *newest) {
			newest = inst
		}
		if inst.SatisfiesMinimum(minVersion) && (closest == nil || newerThan(*closest, *inst)) {
			closest = inst
		}
	}
	if closest != nil {
		return closest
	}
	return newest
}

// defaultSearchDirs lists the directories a JDK manager conventionally
// installs into on this platform, mirroring the teacher's per-OS probe
// list with the os-name vocabulary taken from the Platform Probe rather
// than a second raw runtime.GOOS switch.
func defaultSearchDirs() []string {
	home := os.Getenv("HOME")
	osName, err := platform.Name()
	if err != nil {
		return nil
	}
	switch osName {
	case "osx":
		return []string{
			"/Library/Java/JavaVirtualMachines",
			"/System/Library/Java/JavaVirtualMachines",
			filepath.Join(home, ".sdkman/candidates/java"),
			filepath.Join(home, ".jenv/versions"),
		}
	case "linux":
		return []string{
			"/usr/lib/jvm",
			"/usr/lib64/jvm",
			"/usr/java",
			filepath.Join(home, ".sdkman/candidates/java"),
			filepath.Join(home, ".jenv/versions"),
		}
	case "windows":
		return []string{
			`C:\Program Files\Java`,
			`C:\Program Files\Eclipse Adoptium`,
			`C:\Program Files\Zulu`,
			`C:\Program Files\Microsoft\jdk`,
		}
	default:
		return nil
	}
}

// javaBinName is the executable name for this platform ("java" or
// "java.exe").
func javaBinName() string {
	osName, _ := platform.Name()
	if osName == "windows" {
		return "java.exe"
	}
	return "java"
}

// probeDir looks for a java executable under the standard bin/ and, on
// macOS, Contents/Home/bin/ layouts rooted at dir.
func (d *Detector) probeDir(dir string) *Installation {
	binName := javaBinName()
	for _, candidate := range []string{
		filepath.Join(dir, "bin", binName),
		filepath.Join(dir, "Contents", "Home", "bin", binName),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return d.probeBinary(candidate)
		}
	}
	return nil
}

// probeBinary runs `java -version` against javaPath (resolving symlinks
// first) and parses the resulting Installation.
func (d *Detector) probeBinary(javaPath string) *Installation {
	realPath, err := filepath.EvalSymlinks(javaPath)
	if err != nil {
		realPath = javaPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, realPath, "-version").CombinedOutput()
	if err != nil {
		return nil
	}
	return parseVersionOutput(realPath, string(output))
}

// parseVersionOutput extracts version, bitness, and vendor from a
// `java -version` banner.
func parseVersionOutput(path, output string) *Installation {
	inst := &Installation{Path: path}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		if matches := versionRegex.FindStringSubmatch(line); len(matches) > 1 {
			inst.Version = matches[1]
			inst.MajorVersion = parseMajorVersion(matches[1])
		}

		if strings.Contains(line, "64-Bit") || strings.Contains(line, "amd64") || strings.Contains(line, "x86_64") {
			inst.Is64Bit = true
		}
	}

	outputLower := strings.ToLower(output)
	for _, marker := range vendorMarkers {
		if strings.Contains(outputLower, marker.substr) {
			inst.Vendor = marker.vendor
			break
		}
	}

	osName, _ := platform.Name()
	if osName != "windows" && !inst.Is64Bit {
		// Modern macOS/Linux JDK distributions are 64-bit-only; the
		// banner does not always say so explicitly.
		inst.Is64Bit = true
	}

	if inst.Version == "" {
		return nil
	}
	return inst
}

// parseMajorVersion normalizes both the legacy "1.8.0_391" and current
// "17.0.9" version string shapes down to a bare major version int.
func parseMajorVersion(version string) int {
	if strings.HasPrefix(version, "1.") {
		parts := strings.Split(version, ".")
		if len(parts) >= 2 {
			v, _ := strconv.Atoi(parts[1])
			return v
		}
	}
	parts := strings.Split(version, ".")
	if len(parts) >= 1 {
		v, _ := strconv.Atoi(parts[0])
		return v
	}
	return 0
}

// FormatInstallation renders a one-line human-readable summary of inst.
func FormatInstallation(inst *Installation) string {
	arch := "32-bit"
	if inst.Is64Bit {
		arch = "64-bit"
	}
	vendor := inst.Vendor
	if vendor == "" {
		vendor = "Unknown"
	}
	return "Java " + strconv.Itoa(inst.MajorVersion) + " (" + vendor + ", " + arch + ")"
}
