package versiongraph

import (
	"encoding/json"
	"time"

	"github.com/brackenforge/mcengine/internal/artifact"
	"github.com/brackenforge/mcengine/internal/rules"
)

// VersionRecord is the fully merged descriptor for a single version,
// decoded from the raw deep-merged JSON tree.
type VersionRecord struct {
	ID                     string         `json:"id"`
	Type                   string         `json:"type"`
	MainClass              string         `json:"mainClass"`
	MinecraftArguments     string         `json:"minecraftArguments,omitempty"`
	Arguments              *Arguments     `json:"arguments,omitempty"`
	Libraries              []Library      `json:"libraries"`
	AssetIndex             AssetIndexRef  `json:"assetIndex"`
	Assets                 string         `json:"assets"`
	Downloads              Downloads      `json:"downloads"`
	JavaVersion            JavaVersionReq `json:"javaVersion"`
	Logging                Logging        `json:"logging"`
	ReleaseTime            time.Time      `json:"releaseTime"`
	Time                   time.Time      `json:"time"`
	MinimumLauncherVersion int            `json:"minimumLauncherVersion"`
	InheritsFrom           string         `json:"inheritsFrom,omitempty"`
}

// Arguments holds the modern per-platform game/jvm argument lists.
type Arguments struct {
	Game []Argument `json:"game"`
	JVM  []Argument `json:"jvm"`
}

// Argument is either a bare string, or a {rules, value|values} object;
// Values holds the token(s) regardless of which JSON shape was used, so
// callers never branch on it. It is empty for an object that carries
// neither value nor values.
type Argument struct {
	Rules  []rules.Rule
	Values []string
}

func (a *Argument) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Values = []string{s}
		return nil
	}

	var obj struct {
		Rules  []rules.Rule    `json:"rules"`
		Value  json.RawMessage `json:"value"`
		Values []string        `json:"values"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	a.Rules = obj.Rules

	if len(obj.Values) > 0 {
		a.Values = obj.Values
		return nil
	}
	if len(obj.Value) > 0 {
		var single string
		if err := json.Unmarshal(obj.Value, &single); err == nil {
			a.Values = []string{single}
			return nil
		}
		var multi []string
		if err := json.Unmarshal(obj.Value, &multi); err == nil {
			a.Values = multi
			return nil
		}
	}
	return nil
}

// Library is a single dependency entry, possibly with native
// classifiers and rule-gated applicability.
type Library struct {
	Name      string            `json:"name"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	Rules     []rules.Rule      `json:"rules,omitempty"`
	Natives   map[string]string `json:"natives,omitempty"`
	Extract   *Extract          `json:"extract,omitempty"`
	URL       string            `json:"url,omitempty"`
	// ClientReq, when present and false, means this library is a
	// server-only dependency and must be skipped for a client launch
	// exactly as if a rule had disallowed it.
	ClientReq *bool `json:"clientreq,omitempty"`
}

// Extract lists path prefixes to skip when unpacking a native library.
type Extract struct {
	Exclude []string `json:"exclude,omitempty"`
}

// LibraryDownloads holds the main artifact and any OS-specific native
// classifier artifacts for a library.
type LibraryDownloads struct {
	Artifact    *artifact.Descriptor            `json:"artifact,omitempty"`
	Classifiers map[string]*artifact.Descriptor `json:"classifiers,omitempty"`
}

// AssetIndexRef points at the asset index JSON for this version.
type AssetIndexRef struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize"`
	URL       string `json:"url"`
}

// Downloads holds the client/server jar (and mapping) descriptors.
type Downloads struct {
	Client         *artifact.Descriptor `json:"client,omitempty"`
	ClientMappings *artifact.Descriptor `json:"client_mappings,omitempty"`
	Server         *artifact.Descriptor `json:"server,omitempty"`
	ServerMappings *artifact.Descriptor `json:"server_mappings,omitempty"`
}

// JavaVersionReq names the minimum Java runtime this version needs.
type JavaVersionReq struct {
	Component    string `json:"component"`
	MajorVersion int    `json:"majorVersion"`
}

// Logging describes the optional log4j/log config client argument.
type Logging struct {
	Client *LoggingClient `json:"client,omitempty"`
}

// LoggingClient carries the log config artifact and the JVM argument
// template that references it via a ${path} placeholder.
type LoggingClient struct {
	Argument string               `json:"argument"`
	File     artifact.Descriptor `json:"file"`
	Type     string               `json:"type"`
}
