// Package versiongraph implements the Version Graph Resolver: listing
// locally available and remotely advertised versions, and loading a
// single version's fully resolved descriptor by walking its
// inheritsFrom chain and deep-merging each ancestor into the child.
package versiongraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/brackenforge/mcengine/internal/engineerr"
)

const (
	versionsDirName = "versions"
	manifestURL     = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"
	manifestTTL     = 5 * time.Minute
)

// Summary is one entry from ListVersions: enough to decide whether to
// load a version and where its descriptor lives.
type Summary struct {
	ID          string
	Type        string
	ReleaseTime time.Time
	Path        string // relative to versionsDir
	Local       bool
	URL         string // manifest download URL, empty for local versions
	SHA1        string
}

// Graph resolves and caches version descriptors under a single game
// directory.
type Graph struct {
	gameDir    string
	httpClient *retryablehttp.Client
	log        logr.Logger

	manifestCache   []Summary
	manifestFetched time.Time
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the injected logging sink.
func WithLogger(log logr.Logger) Option {
	return func(g *Graph) { g.log = log }
}

// New builds a Graph rooted at gameDir (e.g. ".minecraft").
func New(gameDir string, opts ...Option) *Graph {
	client := retryablehttp.NewClient()
	client.Logger = nil
	g := &Graph{
		gameDir:    gameDir,
		httpClient: client,
		log:        logr.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// VersionsDir returns gameDir/versions.
func (g *Graph) VersionsDir() string {
	return filepath.Join(g.gameDir, versionsDirName)
}

// ListVersions enumerates local version directories plus the remote
// manifest, skipping any remote entry that a local version shadows, and
// sorts the combined list by release time descending, matching
// parse_versions exactly.
func (g *Graph) ListVersions(ctx context.Context) ([]Summary, error) {
	if err := os.MkdirAll(g.gameDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating game dir: %w", err)
	}

	var out []Summary

	versionsDir := g.VersionsDir()
	entries, err := os.ReadDir(versionsDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		jsonPath := filepath.Join(versionsDir, id, id+".json")
		data, err := os.ReadFile(jsonPath)
		if err != nil {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			g.log.V(1).Info("skipping malformed local version", "id", id)
			continue
		}
		rid, _ := raw["id"].(string)
		rtype, _ := raw["type"].(string)
		rtime, _ := raw["releaseTime"].(string)
		if rid == "" || rtype == "" || rtime == "" || rid != id {
			g.log.Info("skipping invalid local version", "dir", id)
			continue
		}
		if minLauncher, ok := raw["minimumLauncherVersion"].(float64); ok && minLauncher > launcherVersion {
			g.log.V(1).Info("skipping version requiring newer launcher", "id", id, "required", minLauncher)
			continue
		}
		releaseTime, err := time.Parse(time.RFC3339, rtime)
		if err != nil {
			releaseTime = time.Time{}
		}
		out = append(out, Summary{
			ID:          id,
			Type:        rtype,
			ReleaseTime: releaseTime,
			Path:        filepath.Join(id, id+".json"),
			Local:       true,
		})
	}

	manifest, err := g.fetchManifest(ctx)
	if err != nil {
		g.log.Error(err, "unable to fetch remote manifest, using local versions only")
		manifest = nil
	}

	localByID := make(map[string]bool, len(out))
	for _, s := range out {
		localByID[s.ID] = true
	}
	for _, m := range manifest {
		if localByID[m.ID] {
			continue
		}
		m.Path = filepath.Join(m.ID, m.ID+".json")
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ReleaseTime.After(out[j].ReleaseTime)
	})

	return out, nil
}

// launcherVersion is the minimumLauncherVersion ceiling this Engine
// satisfies; version descriptors requiring a newer value are rejected
// with VersionRequiresNewerLauncher semantics during ListVersions and
// Load.
const launcherVersion = 21

type manifestJSON struct {
	Versions []struct {
		ID          string `json:"id"`
		Type        string `json:"type"`
		URL         string `json:"url"`
		ReleaseTime string `json:"releaseTime"`
		SHA1        string `json:"sha1"`
	} `json:"versions"`
}

func (g *Graph) fetchManifest(ctx context.Context) ([]Summary, error) {
	if g.manifestCache != nil && time.Since(g.manifestFetched) < manifestTTL {
		return g.manifestCache, nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", manifestURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("manifest fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var m manifestJSON
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(m.Versions))
	for _, v := range m.Versions {
		if v.ID == "" || v.Type == "" || v.URL == "" || v.ReleaseTime == "" || v.SHA1 == "" {
			g.log.Info("skipping malformed manifest entry", "entry", v)
			continue
		}
		releaseTime, err := time.Parse(time.RFC3339, v.ReleaseTime)
		if err != nil {
			releaseTime = time.Time{}
		}
		out = append(out, Summary{
			ID:          v.ID,
			Type:        v.Type,
			ReleaseTime: releaseTime,
			URL:         v.URL,
			SHA1:        v.SHA1,
		})
	}

	g.manifestCache = out
	g.manifestFetched = time.Now()
	return out, nil
}

// PathFor resolves the relative version JSON path for id, downloading
// the descriptor from the manifest first if it is not present locally
// and download is true. It returns "", nil if the version is unknown.
func (g *Graph) PathFor(ctx context.Context, versions []Summary, id string, download bool) (string, error) {
	var info *Summary
	for i := range versions {
		if versions[i].ID == id {
			info = &versions[i]
		}
	}
	if info == nil {
		return "", nil
	}

	if !info.Local {
		if !download {
			return "", nil
		}
		dest := filepath.Join(g.VersionsDir(), id, id+".json")
		if err := g.downloadVersionJSON(ctx, *info, dest); err != nil {
			return "", err
		}
	}

	return filepath.Join(id, id+".json"), nil
}

func (g *Graph) downloadVersionJSON(ctx context.Context, s Summary, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", s.URL, nil)
	if err != nil {
		return err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("downloading version json for %s: status %d", s.ID, resp.StatusCode)
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

// Load resolves id into a fully merged raw descriptor tree by walking
// its inheritsFrom chain and deep-merging each ancestor, then decodes
// it into a VersionRecord. versions must come from a prior ListVersions
// call so local-vs-remote lookup works.
func (g *Graph) Load(ctx context.Context, versions []Summary, id string) (*VersionRecord, error) {
	raw, err := g.loadRaw(ctx, versions, id)
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw)
}

func (g *Graph) loadRaw(ctx context.Context, versions []Summary, id string) (map[string]any, error) {
	relPath, err := g.PathFor(ctx, versions, id, true)
	if err != nil {
		return nil, err
	}
	if relPath == "" {
		return nil, fmt.Errorf("unknown version: %s", id)
	}

	fullPath := filepath.Join(g.VersionsDir(), relPath)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, err
	}
	var versionJSON map[string]any
	if err := json.Unmarshal(data, &versionJSON); err != nil {
		return nil, err
	}

	if minLauncher, ok := versionJSON["minimumLauncherVersion"].(float64); ok && minLauncher > launcherVersion {
		return nil, engineerr.New(engineerr.VersionRequiresNewerLauncher, id, fmt.Errorf("version %s requires launcher version %v", id, minLauncher))
	}

	if inheritsFrom, ok := versionJSON["inheritsFrom"].(string); ok && inheritsFrom != "" {
		inheritedJSON, err := g.loadRaw(ctx, versions, inheritsFrom)
		if err != nil {
			return nil, fmt.Errorf("resolving inherited version %s: %w", inheritsFrom, err)
		}
		versionJSON = deepMerge(inheritedJSON, versionJSON)
	}

	return versionJSON, nil
}

// deepMerge recursively updates destination with update's values: nested
// objects recurse, arrays are set as-is when the key is absent from
// destination (or holds a non-array) and appended to the existing array
// otherwise, and scalars overwrite. This
// is a direct port of update_deep operating on the generic tree shape
// encoding/json produces for map[string]any.
func deepMerge(destination, update map[string]any) map[string]any {
	if destination == nil {
		destination = map[string]any{}
	}
	for key, value := range update {
		switch v := value.(type) {
		case map[string]any:
			existing, _ := destination[key].(map[string]any)
			destination[key] = deepMerge(existing, v)
		case []any:
			if existing, ok := destination[key]; !ok || existing == nil {
				destination[key] = v
			} else if existingSlice, ok := existing.([]any); ok {
				destination[key] = append(existingSlice, v...)
			} else {
				destination[key] = v
			}
		default:
			destination[key] = value
		}
	}
	return destination
}

func decodeRecord(raw map[string]any) (*VersionRecord, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var rec VersionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
