package versiongraph

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDeepMergeScalarsOverwrite(t *testing.T) {
	dest := map[string]any{"mainClass": "old.Class"}
	update := map[string]any{"mainClass": "new.Class"}
	got := deepMerge(dest, update)
	if got["mainClass"] != "new.Class" {
		t.Errorf("mainClass = %v, want new.Class", got["mainClass"])
	}
}

func TestDeepMergeNestedMapsRecurse(t *testing.T) {
	dest := map[string]any{"downloads": map[string]any{"client": map[string]any{"url": "old"}}}
	update := map[string]any{"downloads": map[string]any{"server": map[string]any{"url": "new"}}}
	got := deepMerge(dest, update)

	downloads := got["downloads"].(map[string]any)
	if downloads["client"] == nil {
		t.Error("expected client download to survive the merge")
	}
	if downloads["server"] == nil {
		t.Error("expected server download to be added by the merge")
	}
}

func TestDeepMergeListsExtend(t *testing.T) {
	dest := map[string]any{"libraries": []any{"a"}}
	update := map[string]any{"libraries": []any{"b", "c"}}
	got := deepMerge(dest, update)

	libs := got["libraries"].([]any)
	if len(libs) != 3 {
		t.Fatalf("libraries = %v, want 3 entries", libs)
	}
	if libs[0] != "a" || libs[1] != "b" || libs[2] != "c" {
		t.Errorf("libraries = %v, want [a b c]", libs)
	}
}

func TestDeepMergeListAbsentInDestinationIsSet(t *testing.T) {
	dest := map[string]any{}
	update := map[string]any{"libraries": []any{"a"}}
	got := deepMerge(dest, update)
	if len(got["libraries"].([]any)) != 1 {
		t.Errorf("expected libraries to be set wholesale when absent from destination")
	}
}

func TestLoadResolvesInheritsFrom(t *testing.T) {
	gameDir := t.TempDir()
	versionsDir := filepath.Join(gameDir, versionsDirName)

	writeVersionJSON(t, versionsDir, "parent", map[string]any{
		"id":          "parent",
		"type":        "release",
		"releaseTime": "2020-01-01T00:00:00+00:00",
		"mainClass":   "net.minecraft.client.Main",
		"libraries":   []any{map[string]any{"name": "com.mojang:base:1.0"}},
	})
	writeVersionJSON(t, versionsDir, "child", map[string]any{
		"id":           "child",
		"type":         "release",
		"releaseTime":  "2021-01-01T00:00:00+00:00",
		"inheritsFrom": "parent",
		"libraries":    []any{map[string]any{"name": "com.mojang:extra:2.0"}},
	})

	g := New(gameDir)
	versions := []Summary{
		{ID: "parent", Local: true, Path: filepath.Join("parent", "parent.json")},
		{ID: "child", Local: true, Path: filepath.Join("child", "child.json")},
	}

	record, err := g.Load(context.Background(), versions, "child")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if record.MainClass != "net.minecraft.client.Main" {
		t.Errorf("MainClass = %q, want inherited value", record.MainClass)
	}
	if len(record.Libraries) != 2 {
		t.Fatalf("Libraries = %+v, want 2 entries merged from both ancestors", record.Libraries)
	}
}

func TestLoadRejectsNewerLauncherRequirement(t *testing.T) {
	gameDir := t.TempDir()
	versionsDir := filepath.Join(gameDir, versionsDirName)

	writeVersionJSON(t, versionsDir, "future", map[string]any{
		"id":                     "future",
		"type":                   "release",
		"releaseTime":            "2030-01-01T00:00:00+00:00",
		"minimumLauncherVersion": launcherVersion + 1,
	})

	g := New(gameDir)
	versions := []Summary{{ID: "future", Local: true, Path: filepath.Join("future", "future.json")}}

	if _, err := g.Load(context.Background(), versions, "future"); err == nil {
		t.Error("Load() should reject a version requiring a newer launcher")
	}
}

func writeVersionJSON(t *testing.T, versionsDir, id string, contents map[string]any) {
	t.Helper()
	dir := filepath.Join(versionsDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(contents)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}
