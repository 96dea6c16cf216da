package artifact

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestNewChecksumPrecedence(t *testing.T) {
	d := Descriptor{Path: "x.jar", SHA1: "aaa", MD5: "bbb"}
	a, err := New(d, "/tmp", "", "", nil, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.ChecksumAlg != "sha1" || a.Checksum != "aaa" {
		t.Errorf("expected sha1/aaa to win over md5, got %s/%s", a.ChecksumAlg, a.Checksum)
	}
}

func TestNewFallsBackToMD5WhenNoSHA1(t *testing.T) {
	d := Descriptor{Path: "x.jar", MD5: "bbb"}
	a, err := New(d, "/tmp", "", "", nil, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.ChecksumAlg != "md5" || a.Checksum != "bbb" {
		t.Errorf("expected md5/bbb, got %s/%s", a.ChecksumAlg, a.Checksum)
	}
}

func TestNewNormalizesMavenCoordinate(t *testing.T) {
	d := Descriptor{Name: "com.mojang:patchy:1.1", URL: "https://libraries.minecraft.net"}
	a, err := New(d, "/tmp/libs", "", "", nil, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	want := "com/mojang/patchy/1.1/patchy-1.1.jar"
	if a.Path != want {
		t.Errorf("Path = %q, want %q", a.Path, want)
	}
	if a.URL != "https://libraries.minecraft.net/"+want {
		t.Errorf("URL = %q", a.URL)
	}
}

func TestNewNormalizesForgeUniversalJar(t *testing.T) {
	d := Descriptor{Name: "net.minecraftforge:forge:1.20.1-47.2.0", URL: "https://maven.minecraftforge.net"}
	a, err := New(d, "/tmp/libs", "", "", nil, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	want := "net/minecraftforge/forge/1.20.1-47.2.0/forge-1.20.1-47.2.0-universal.jar"
	if a.Path != want {
		t.Errorf("Path = %q, want %q", a.Path, want)
	}
	if a.URL != "https://maven.minecraftforge.net/"+want {
		t.Errorf("URL = %q", a.URL)
	}
}

func TestNewRejectsMalformedCoordinate(t *testing.T) {
	d := Descriptor{Name: "not-a-coordinate"}
	if _, err := New(d, "/tmp", "", "", nil, ""); err == nil {
		t.Error("expected error for malformed coordinate name")
	}
}

func TestTargetFileOverridesDescriptorPath(t *testing.T) {
	d := Descriptor{Path: "original.jar"}
	a, err := New(d, "/tmp", "renamed.jar", "", nil, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.Path != "renamed.jar" {
		t.Errorf("Path = %q, want renamed.jar", a.Path)
	}
}

func TestVerifyNoChecksumDeclared(t *testing.T) {
	a := Artifact{ParentDir: t.TempDir(), Path: "f.bin"}
	ok, err := a.Verify()
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("Verify() should be false when no checksum is declared")
	}
}

func TestVerifyMatchesActualContent(t *testing.T) {
	dir := t.TempDir()
	content := []byte("hello world")
	if err := os.WriteFile(filepath.Join(dir, "f.bin"), content, 0o644); err != nil {
		t.Fatal(err)
	}
	sum := sha1.Sum(content)
	a := Artifact{ParentDir: dir, Path: "f.bin", ChecksumAlg: "sha1", Checksum: hex.EncodeToString(sum[:])}

	ok, err := a.Verify()
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("Verify() should match a correctly computed sha1")
	}
}

func TestVerifyDetectsMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "f.bin"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	a := Artifact{ParentDir: dir, Path: "f.bin", ChecksumAlg: "sha1", Checksum: "deadbeef"}

	ok, err := a.Verify()
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("Verify() should detect a checksum mismatch")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	a := Artifact{ParentDir: dir, Path: "missing.bin"}
	if a.Exists() {
		t.Error("Exists() should be false for a missing file")
	}
	if err := os.WriteFile(filepath.Join(dir, "present.bin"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	a.Path = "present.bin"
	if !a.Exists() {
		t.Error("Exists() should be true once the file is written")
	}
}
