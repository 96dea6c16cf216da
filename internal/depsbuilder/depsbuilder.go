// Package depsbuilder implements the Dependency Builder: given a fully
// resolved versiongraph.VersionRecord, it builds the artifacts the
// version needs (client jar, asset index and log config are returned to
// the caller; libraries, natives and asset objects are enqueued through
// the add-artifact callback), then assembles the final launch plan (java
// executable, JVM/game arguments, classpath, environment map).
package depsbuilder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/brackenforge/mcengine/internal/artifact"
	"github.com/brackenforge/mcengine/internal/platform"
	"github.com/brackenforge/mcengine/internal/rules"
	"github.com/brackenforge/mcengine/internal/versiongraph"
)

const (
	assetsDirName       = "assets"
	assetIndexesDirName = "assets/indexes"
	assetObjectsDirName = "assets/objects"
	assetLegacyDirName  = "assets/virtual/legacy"
	librariesDirName    = "libraries"
	nativesDirName      = "natives"
	logConfigsDirName   = "assets/log_configs"

	launcherName    = "mcengine"
	launcherVersion = "1"
	mainClassDefault = "net.minecraft.launchwrapper.Launch"

	assetObjectDownloadURLTmpl = "https://resources.download.minecraft.net/%s/%s"

	// logConfigLayout replaces <XMLLayout/>/<LegacyXMLLayout/> so the
	// log stream can be parsed line by line without an XML parser, the
	// same rewrite launcher.py performs before launch.
	logConfigLayout = `<PatternLayout pattern="[%t/%level]: %msg{nolookups}%n" />`
)

// jvmArgsOld are the JVM arguments used for version descriptors
// predating the structured "arguments" object.
var jvmArgsOld = []string{
	"-Djava.library.path=${natives_directory}",
	"-cp",
	"${classpath}",
}

// AddArtifactFunc enqueues an artifact for resolution, matching the
// original's add_artifact callback.
type AddArtifactFunc func(artifact.Artifact)

// Builder assembles the materialization plan for one version.
type Builder struct {
	addArtifact AddArtifactFunc
	gameDir     string
	versionsDir string
	versionID   string
	record      *versiongraph.VersionRecord
	log         logr.Logger
}

// New builds a Builder for versionID within gameDir, using record as
// the fully merged version descriptor.
func New(addArtifact AddArtifactFunc, gameDir, versionsDir, versionID string, record *versiongraph.VersionRecord, log logr.Logger) *Builder {
	return &Builder{
		addArtifact: addArtifact,
		gameDir:     gameDir,
		versionsDir: versionsDir,
		versionID:   versionID,
		record:      record,
		log:         log,
	}
}

// NativesDir returns the per-version natives extraction directory.
func (b *Builder) NativesDir() string {
	return filepath.Join(b.versionsDir, b.versionID, nativesDirName)
}

// LibsDir returns the shared libraries directory.
func (b *Builder) LibsDir() string {
	return filepath.Join(b.gameDir, librariesDirName)
}

// AssetsDir returns the shared assets directory.
func (b *Builder) AssetsDir() string {
	return filepath.Join(b.gameDir, assetsDirName)
}

// AssetsLegacyDir returns the legacy per-name asset mirror directory.
func (b *Builder) AssetsLegacyDir() string {
	return filepath.Join(b.gameDir, assetLegacyDirName)
}

// RequiredJavaMajorVersion returns the version's required Java major
// version, defaulting to 8 when unspecified, matching
// version_json.get("javaVersion", {}).get("majorVersion", 8).
func (b *Builder) RequiredJavaMajorVersion() int {
	if b.record.JavaVersion.MajorVersion == 0 {
		return 8
	}
	return b.record.JavaVersion.MajorVersion
}

// ClientArtifact builds the Artifact descriptor for the version's
// client jar, to be enqueued by the caller.
func (b *Builder) ClientArtifact() (artifact.Artifact, bool, error) {
	if b.record.Downloads.Client == nil {
		return artifact.Artifact{}, false, nil
	}
	parentDir := filepath.Join(b.versionsDir, b.versionID)
	a, err := artifact.New(*b.record.Downloads.Client, parentDir, b.versionID+".jar", "", nil, "")
	if err != nil {
		return artifact.Artifact{}, false, err
	}
	return a, true, nil
}

// ClientPath returns where the client jar will land once resolved.
func (b *Builder) ClientPath() string {
	return filepath.Join(b.versionsDir, b.versionID, b.versionID+".jar")
}

// EnqueueAssets reads the already-resolved asset index at
// assetIndexPath, parses it, and enqueues one artifact per object, each
// mirrored into the legacy per-name layout.
// It returns the assets ID (the index name downstream code should use
// for assets_index_name) for success, or an error.
func (b *Builder) EnqueueAssets(assetIndexPath string) (string, error) {
	if b.record.Assets == "" {
		return "", fmt.Errorf("no assets specified")
	}
	if b.record.AssetIndex.ID != b.record.Assets {
		return "", fmt.Errorf("unable to resolve assets: wrong assetIndex")
	}

	data, err := os.ReadFile(assetIndexPath)
	if err != nil {
		return "", fmt.Errorf("reading asset index: %w", err)
	}

	var index struct {
		Objects map[string]struct {
			Hash string `json:"hash"`
			Size int64  `json:"size"`
		} `json:"objects"`
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return "", fmt.Errorf("parsing asset index: %w", err)
	}

	objectsRoot := filepath.Join(b.gameDir, assetObjectsDirName)
	legacyDir := b.AssetsLegacyDir()

	for objectName, obj := range index.Objects {
		if obj.Hash == "" {
			continue
		}
		copyTo := filepath.Join(legacyDir, filepath.FromSlash(objectName))
		desc := artifact.Descriptor{
			URL:  fmt.Sprintf(assetObjectDownloadURLTmpl, obj.Hash[:2], obj.Hash),
			SHA1: obj.Hash,
			Size: obj.Size,
		}
		a, err := artifact.New(desc, objectsRoot, filepath.Join(obj.Hash[:2], obj.Hash), "", nil, copyTo)
		if err != nil {
			return "", err
		}
		b.addArtifact(a)
	}

	return b.record.Assets, nil
}

// AssetIndexArtifact builds the descriptor for the asset index JSON
// itself, to be resolved before EnqueueAssets can parse it.
func (b *Builder) AssetIndexArtifact() (artifact.Artifact, error) {
	desc := artifact.Descriptor{
		URL:  b.record.AssetIndex.URL,
		SHA1: b.record.AssetIndex.SHA1,
		Size: b.record.AssetIndex.Size,
	}
	parentDir := filepath.Join(b.gameDir, assetIndexesDirName)
	return artifact.New(desc, parentDir, b.record.Assets+".json", "", nil, "")
}

// EnqueueLibraries enqueues the main artifact (and, when applicable,
// the current platform's native classifier) for every library the
// rule evaluator allows, returning the relative-to-libs-dir paths in
// the same order get_libraries() would, for classpath assembly.
func (b *Builder) EnqueueLibraries() ([]string, error) {
	if len(b.record.Libraries) == 0 {
		return nil, nil
	}

	libsDir := b.LibsDir()
	nativesDir := b.NativesDir()
	osName, err := platform.Name()
	if err != nil {
		return nil, err
	}

	var libs []string
	for _, lib := range b.record.Libraries {
		if lib.Name == "" {
			continue
		}
		if lib.ClientReq != nil && !*lib.ClientReq {
			b.log.V(1).Info("skipping server-only library", "library", lib.Name)
			continue
		}
		if len(lib.Rules) > 0 && !rules.Evaluate(lib.Rules, nil) {
			b.log.V(1).Info("skipping library disallowed by rules", "library", lib.Name)
			continue
		}

		// Modern descriptors carry the artifact under
		// downloads.artifact; legacy ones only give a Maven
		// coordinate name and an optional base url, which
		// artifact.New normalizes into a path/url pair.
		var desc artifact.Descriptor
		if lib.Downloads != nil && lib.Downloads.Artifact != nil {
			desc = *lib.Downloads.Artifact
		} else {
			desc = artifact.Descriptor{Name: lib.Name, URL: lib.URL}
		}
		a, err := artifact.New(desc, libsDir, "", "", nil, "")
		if err != nil {
			return nil, err
		}
		if a.Path != "" {
			b.addArtifact(a)
			libs = append(libs, a.Path)
		}

		if lib.Downloads != nil && len(lib.Downloads.Classifiers) > 0 && lib.Natives != nil {
			if classifierKey, ok := lib.Natives[osName]; ok {
				if classifierDesc, ok := lib.Downloads.Classifiers[classifierKey]; ok && classifierDesc != nil {
					var exclude []string
					if lib.Extract != nil {
						exclude = lib.Extract.Exclude
					}
					na, err := artifact.New(*classifierDesc, libsDir, "", nativesDir, exclude, "")
					if err != nil {
						return nil, err
					}
					libs = append(libs, na.Path)
					b.addArtifact(na)
				}
			}
		}
	}

	return libs, nil
}

// LogConfigArtifact builds the descriptor for the optional log4j/log
// config file, and the JVM argument template that references it. It
// returns ok=false when the version has no logging.client section.
func (b *Builder) LogConfigArtifact() (a artifact.Artifact, argTemplate string, ok bool, err error) {
	client := b.record.Logging.Client
	if client == nil || client.Argument == "" || client.File.URL == "" {
		return artifact.Artifact{}, "", false, nil
	}

	parentDir := filepath.Join(b.gameDir, logConfigsDirName)
	id := client.File.ID
	if id == "" {
		id = client.File.Path
	}
	if id == "" {
		id = client.File.Name
	}
	a, err = artifact.New(client.File, parentDir, id, "", nil, "")
	if err != nil {
		return artifact.Artifact{}, "", false, err
	}
	// The file is rewritten after download (RewriteLogConfig), so no
	// checksum is kept for it: the resolver accepts it once it exists.
	a.ChecksumAlg, a.Checksum = "", ""
	return a, client.Argument, true, nil
}

// RewriteLogConfig performs the <XMLLayout/> / <LegacyXMLLayout/>
// substitution launcher.py applies after resolving the log config, so
// the launched process's log stream can be read line by line.
func RewriteLogConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	rewritten := strings.ReplaceAll(string(data), "<XMLLayout />", logConfigLayout)
	rewritten = strings.ReplaceAll(rewritten, "<LegacyXMLLayout />", logConfigLayout)
	return os.WriteFile(path, []byte(rewritten), 0o644)
}

// Arguments parses the game (game=true) or jvm (game=false) argument
// list, applying rule filtering per-entry.
func (b *Builder) Arguments(game bool, features rules.Features) []string {
	var entries []versiongraph.Argument
	var fallback []string

	if game {
		if b.record.Arguments != nil {
			entries = b.record.Arguments.Game
		}
		if len(entries) == 0 && b.record.MinecraftArguments != "" {
			fallback = strings.Split(b.record.MinecraftArguments, " ")
		}
	} else {
		if b.record.Arguments != nil {
			entries = b.record.Arguments.JVM
		}
		if len(entries) == 0 {
			fallback = append([]string(nil), jvmArgsOld...)
		}
	}

	if len(entries) == 0 {
		return fallback
	}

	var parsed []string
	for _, entry := range entries {
		if len(entry.Values) == 0 {
			continue
		}
		if len(entry.Rules) > 0 && !rules.Evaluate(entry.Rules, features) {
			continue
		}
		parsed = append(parsed, entry.Values...)
	}
	return parsed
}

// MainClass returns the version's main class, or the historical default.
func (b *Builder) MainClass() string {
	if b.record.MainClass != "" {
		return b.record.MainClass
	}
	return mainClassDefault
}

// VersionType returns the version's declared type, defaulting to
// "release".
func (b *Builder) VersionType() string {
	if b.record.Type != "" {
		return b.record.Type
	}
	return "release"
}
