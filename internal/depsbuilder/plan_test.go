package depsbuilder

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"

	"github.com/brackenforge/mcengine/internal/artifact"
	"github.com/brackenforge/mcengine/internal/versiongraph"
)

func TestDeriveOfflineUUIDIsDeterministic(t *testing.T) {
	first := DeriveOfflineUUID("Notch")
	second := DeriveOfflineUUID("Notch")
	if first != second {
		t.Error("DeriveOfflineUUID() should be deterministic for the same name")
	}
	if DeriveOfflineUUID("Notch") == DeriveOfflineUUID("Jeb") {
		t.Error("different names should derive different uuids")
	}
	if len(first) != 32 {
		t.Errorf("DeriveOfflineUUID() length = %d, want 32 hex chars", len(first))
	}
}

func TestDeriveOfflineUUIDSetsVersionAndVariantBits(t *testing.T) {
	uuid := DeriveOfflineUUID("Steve")
	// byte 6's high nibble must be 3, byte 8's top two bits must be 10.
	versionNibble := uuid[12]
	if versionNibble != '3' {
		t.Errorf("version nibble = %q, want 3", versionNibble)
	}
	variantNibble := uuid[16]
	if variantNibble != '8' && variantNibble != '9' && variantNibble != 'a' && variantNibble != 'b' {
		t.Errorf("variant nibble = %q, want one of 8, 9, a, b", variantNibble)
	}
}

func TestBuildLaunchPlanOfflineDemoMode(t *testing.T) {
	record := &versiongraph.VersionRecord{
		ID:        "1.20.1",
		MainClass: "net.minecraft.client.Main",
		Arguments: &versiongraph.Arguments{
			Game: []versiongraph.Argument{{Values: []string{"--username", "${auth_player_name}"}}},
			JVM:  []versiongraph.Argument{{Values: []string{"-cp", "${classpath}"}}},
		},
	}
	gameDir := t.TempDir()
	versionsDir := filepath.Join(gameDir, "versions")
	b := New(func(artifact.Artifact) {}, gameDir, versionsDir, record.ID, record, logr.Discard())

	plan, err := b.BuildLaunchPlan(PlanOptions{JavaPath: "/usr/bin/java", GameDir: gameDir}, b.ClientPath(), nil, "legacy", "")
	if err != nil {
		t.Fatalf("BuildLaunchPlan() error = %v", err)
	}

	if plan.Env["auth_player_name"] != "" {
		t.Errorf("expected empty player name, got %q", plan.Env["auth_player_name"])
	}
	if plan.Env["auth_uuid"] != "" {
		t.Error("offline demo mode with no player name should not derive a uuid")
	}
	found := false
	for _, arg := range plan.Args {
		if arg == "Steve" {
			found = true
		}
	}
	if found {
		t.Error("unexpected literal Steve in args")
	}
	if plan.JavaPath != "/usr/bin/java" {
		t.Errorf("JavaPath = %q", plan.JavaPath)
	}
}

func TestBuildLaunchPlanDerivesOfflineUUIDForNamedPlayer(t *testing.T) {
	record := &versiongraph.VersionRecord{
		ID:        "1.20.1",
		MainClass: "net.minecraft.client.Main",
		Arguments: &versiongraph.Arguments{
			Game: []versiongraph.Argument{{Values: []string{"--username", "${auth_player_name}", "--uuid", "${auth_uuid}"}}},
		},
	}
	gameDir := t.TempDir()
	b := New(func(artifact.Artifact) {}, gameDir, filepath.Join(gameDir, "versions"), record.ID, record, logr.Discard())

	plan, err := b.BuildLaunchPlan(PlanOptions{JavaPath: "/usr/bin/java", GameDir: gameDir, PlayerName: "Steve"}, b.ClientPath(), nil, "legacy", "")
	if err != nil {
		t.Fatalf("BuildLaunchPlan() error = %v", err)
	}

	want := DeriveOfflineUUID("Steve")
	if plan.Env["auth_uuid"] != want {
		t.Errorf("auth_uuid = %q, want %q", plan.Env["auth_uuid"], want)
	}
}

func TestSubstitutePlaceholdersUsesEnvThenProcessFallback(t *testing.T) {
	env := map[string]string{"auth_player_name": "Steve"}
	got := substitutePlaceholders("--username ${auth_player_name}", env)
	if got != "--username Steve" {
		t.Errorf("substitutePlaceholders() = %q", got)
	}
}

func TestSubstitutePlaceholdersDedupesRepeatedTokens(t *testing.T) {
	env := map[string]string{"x": "1"}
	got := substitutePlaceholders("${x}-${x}", env)
	if got != "1-1" {
		t.Errorf("substitutePlaceholders() = %q, want 1-1", got)
	}
}

func TestJoinClasspathUsesPlatformSeparator(t *testing.T) {
	got := joinClasspath([]string{"a.jar", "b.jar"})
	if !strings.Contains(got, "a.jar") || !strings.Contains(got, "b.jar") {
		t.Errorf("joinClasspath() = %q", got)
	}
}
