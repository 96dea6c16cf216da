// Package rules implements the tri-state rule evaluator used to decide
// whether a library, JVM argument, or game argument applies to the
// current platform and the caller's requested features.
package rules

import (
	"regexp"
	"strings"

	"github.com/brackenforge/mcengine/internal/platform"
)

// OS describes an os condition on a Rule.
type OS struct {
	Name    string `json:"name,omitempty"`
	Arch    string `json:"arch,omitempty"`
	Version string `json:"version,omitempty"`
}

// Rule is a single allow/disallow entry with optional os and features
// sub-conditions, matching the shape used throughout version.json.
type Rule struct {
	Action   string         `json:"action"`
	OS       *OS            `json:"os,omitempty"`
	Features map[string]any `json:"features,omitempty"`
}

// Features carries the caller's feature flags (is_demo_user,
// has_custom_resolution, has_quick_plays_support,
// is_quick_play_singleplayer, is_quick_play_multiplayer,
// is_quick_play_realms) keyed exactly as they appear in version.json.
type Features map[string]any

// tri is a three-valued bool: unset, true, or false.
type tri int

const (
	triUnset tri = iota
	triTrue
	triFalse
)

// Evaluate runs the rule list top to bottom and returns whether the
// governed item applies. An empty rule list always applies. This
// mirrors rules_check.py exactly, including its quirk that a features
// sub-check only forces false after at least one key has already
// matched true; a features map with no matching keys at all defaults
// the features sub-result to false rather than leaving it unset.
func Evaluate(rs []Rule, features Features) bool {
	if len(rs) == 0 {
		return true
	}
	if features == nil {
		features = Features{}
	}

	result := triUnset

	for _, rule := range rs {
		if rule.Action == "" {
			continue
		}
		isAllowed := rule.Action == "allow"

		osResult := evaluateOS(rule.OS)
		featuresResult := evaluateFeatures(rule.Features, features)

		switch {
		case osResult == triUnset && featuresResult == triUnset:
			result = boolTri(isAllowed)
		case (osResult == triUnset || osResult == triTrue) && (featuresResult == triUnset || featuresResult == triTrue):
			result = boolTri(isAllowed)
		case result == triUnset:
			result = boolTri(!isAllowed)
		}
	}

	return result == triTrue
}

func boolTri(b bool) tri {
	if b {
		return triTrue
	}
	return triFalse
}

func evaluateOS(os *OS) tri {
	if os == nil {
		return triUnset
	}
	result := triUnset

	if os.Name != "" {
		name, err := platform.Name()
		if err != nil {
			return triFalse
		}
		result = boolTri(os.Name == name)
	}

	if (result == triUnset || result == triTrue) && os.Arch != "" {
		current := strings.ToLower(platform.Arch())
		if strings.ToLower(os.Arch) == current {
			if result == triUnset {
				result = triTrue
			}
		} else {
			result = triFalse
		}
	}

	if (result == triUnset || result == triTrue) && os.Version != "" {
		current := platform.Version()
		matched, err := regexp.MatchString(os.Version, current)
		if err == nil && matched {
			if result == triUnset {
				result = triTrue
			}
		} else {
			result = triFalse
		}
	}

	return result
}

func evaluateFeatures(ruleFeatures map[string]any, have Features) tri {
	if ruleFeatures == nil {
		return triUnset
	}

	result := triUnset
	for key, want := range ruleFeatures {
		got, present := have[key]
		if !present {
			continue
		}
		if got == want {
			if result == triUnset {
				result = triTrue
			}
		} else if result == triTrue {
			result = triFalse
			break
		}
	}
	if result == triUnset {
		result = triFalse
	}
	return result
}
