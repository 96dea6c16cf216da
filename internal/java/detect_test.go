package java

import "testing"

func TestParseMajorVersion(t *testing.T) {
	tests := []struct {
		version string
		want    int
	}{
		{"1.8.0_391", 8},
		{"1.8.0", 8},
		{"11.0.21", 11},
		{"17.0.9", 17},
		{"21.0.1", 21},
		{"21", 21},
		{"", 0},
		{"abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := parseMajorVersion(tt.version); got != tt.want {
				t.Errorf("parseMajorVersion(%q) = %d, want %d", tt.version, got, tt.want)
			}
		})
	}
}

func TestParseVersionOutputVendors(t *testing.T) {
	tests := []struct {
		name       string
		banner     string
		wantMajor  int
		want64Bit  bool
		wantVendor string
	}{
		{
			name: "openjdk 21",
			banner: `openjdk version "21.0.1" 2023-10-17
OpenJDK Runtime Environment (build 21.0.1+12-29)
OpenJDK 64-Bit Server VM (build 21.0.1+12-29, mixed mode, sharing)`,
			wantMajor:  21,
			want64Bit:  true,
			wantVendor: "OpenJDK",
		},
		{
			name: "legacy java 8",
			banner: `java version "1.8.0_391"
Java(TM) SE Runtime Environment (build 1.8.0_391-b13)
Java HotSpot(TM) 64-Bit Server VM (build 25.391-b13, mixed mode)`,
			wantMajor:  8,
			want64Bit:  true,
			wantVendor: "",
		},
		{
			name: "adoptium temurin",
			banner: `openjdk version "17.0.9" 2023-10-17
OpenJDK Runtime Environment Temurin-17.0.9+9 (build 17.0.9+9)
OpenJDK 64-Bit Server VM Temurin-17.0.9+9 (build 17.0.9+9, mixed mode)`,
			wantMajor:  17,
			want64Bit:  true,
			wantVendor: "Eclipse Adoptium",
		},
		{
			name: "azul zulu",
			banner: `openjdk version "11.0.21" 2023-10-17
OpenJDK Runtime Environment Zulu11.66+19-CA (build 11.0.21+9-LTS)
OpenJDK 64-Bit Server VM Zulu11.66+19-CA (build 11.0.21+9-LTS, mixed mode)`,
			wantMajor:  11,
			want64Bit:  true,
			wantVendor: "Azul Zulu",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := parseVersionOutput("/usr/bin/java", tt.banner)
			if inst == nil {
				t.Fatal("expected non-nil installation")
			}
			if inst.MajorVersion != tt.wantMajor {
				t.Errorf("MajorVersion = %d, want %d", inst.MajorVersion, tt.wantMajor)
			}
			if inst.Is64Bit != tt.want64Bit {
				t.Errorf("Is64Bit = %v, want %v", inst.Is64Bit, tt.want64Bit)
			}
			if inst.Vendor != tt.wantVendor {
				t.Errorf("Vendor = %q, want %q", inst.Vendor, tt.wantVendor)
			}
		})
	}
}

func TestParseVersionOutputRejectsBannerWithNoVersionToken(t *testing.T) {
	if inst := parseVersionOutput("/usr/bin/java", "command not found"); inst != nil {
		t.Errorf("expected nil installation for an unparseable banner, got %+v", inst)
	}
}

func TestFormatInstallation(t *testing.T) {
	tests := []struct {
		name string
		inst *Installation
		want string
	}{
		{
			name: "known vendor, 64-bit",
			inst: &Installation{MajorVersion: 21, Is64Bit: true, Vendor: "OpenJDK"},
			want: "Java 21 (OpenJDK, 64-bit)",
		},
		{
			name: "unknown vendor, 32-bit",
			inst: &Installation{MajorVersion: 17, Is64Bit: false},
			want: "Java 17 (Unknown, 32-bit)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatInstallation(tt.inst); got != tt.want {
				t.Errorf("FormatInstallation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJavaBinNameMatchesHostConvention(t *testing.T) {
	name := javaBinName()
	if name != "java" && name != "java.exe" {
		t.Errorf("javaBinName() = %q, want java or java.exe", name)
	}
}
