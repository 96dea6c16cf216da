package java

import "testing"

func TestSatisfiesMinimum(t *testing.T) {
	tests := []struct {
		name    string
		version string
		min     int
		want    bool
	}{
		{"exact match", "17.0.9", 17, true},
		{"newer satisfies", "21.0.1", 17, true},
		{"older fails", "11.0.21", 17, false},
		{"legacy format satisfies", "1.8.0_391", 8, true},
		{"unparseable fails", "", 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := Installation{Version: tt.version, MajorVersion: parseMajorVersion(tt.version)}
			if got := inst.SatisfiesMinimum(tt.min); got != tt.want {
				t.Errorf("SatisfiesMinimum(%d) = %v, want %v", tt.min, got, tt.want)
			}
		})
	}
}

func TestNewerThan(t *testing.T) {
	newer := Installation{Version: "21.0.1", MajorVersion: 21}
	older := Installation{Version: "17.0.9", MajorVersion: 17}

	if !newerThan(newer, older) {
		t.Error("expected 21 to be newer than 17")
	}
	if newerThan(older, newer) {
		t.Error("expected 17 to not be newer than 21")
	}
}

func TestSelectBestPrefersClosestSatisfyingVersion(t *testing.T) {
	installations := []Installation{
		{Version: "8.0.0", MajorVersion: 8, Is64Bit: true},
		{Version: "17.0.9", MajorVersion: 17, Is64Bit: true},
		{Version: "21.0.1", MajorVersion: 21, Is64Bit: true},
	}

	best := selectBest(installations, 17)
	if best == nil || best.MajorVersion != 17 {
		t.Fatalf("expected major version 17, got %+v", best)
	}
}

func TestSelectBestFallsBackToNewestWhenNoneSatisfy(t *testing.T) {
	installations := []Installation{
		{Version: "8.0.0", MajorVersion: 8, Is64Bit: true},
		{Version: "11.0.21", MajorVersion: 11, Is64Bit: true},
	}

	best := selectBest(installations, 21)
	if best == nil || best.MajorVersion != 11 {
		t.Fatalf("expected fallback to newest (11), got %+v", best)
	}
}

func TestSelectBestIgnoresNon64Bit(t *testing.T) {
	installations := []Installation{
		{Version: "21.0.1", MajorVersion: 21, Is64Bit: false},
	}
	if got := selectBest(installations, 8); got != nil {
		t.Fatalf("expected nil when no 64-bit installation exists, got %+v", got)
	}
}
