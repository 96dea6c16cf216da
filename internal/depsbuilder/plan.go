package depsbuilder

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/brackenforge/mcengine/internal/rules"
)

// LaunchPlan is the final materialized output: the java executable to
// run, its full argument list, a classpath string, and the environment
// map the caller's process supervisor (out of this Engine's scope)
// should apply on top of its own environment before starting the
// child process.
type LaunchPlan struct {
	JavaPath          string
	Args              []string
	Classpath         []string
	ClasspathJoined   string
	Env               map[string]string
	WorkingDir        string
	StoppingLogPattern string
}

// placeholderPattern matches ${name} tokens with no nested braces,
// exactly as launcher.py's re.findall("\\$\\{[^\\$\\}\\{]+\\}", ...).
var placeholderPattern = regexp.MustCompile(`\$\{[^\$\}\{]+\}`)

// stoppingLogPattern is carried in the LaunchPlan for an external
// supervisor to watch for and force-kill the child process after a
// timeout, reproducing launcher.py's MINECRAFT_STOPPING_LOG watchdog
// without this Engine itself supervising the child process.
const stoppingLogPattern = `(\[Render thread\/INFO\]\: Stopping\!|\!\[CDATA\[Stopping\!\]\])`

// PlanOptions carries the caller-supplied identity/session information
// the Engine does not itself resolve (no online auth is performed
// here; the caller may pass through a token it obtained elsewhere, or
// leave PlayerName empty to get offline/demo behavior).
type PlanOptions struct {
	JavaPath     string
	GameDir      string
	PlayerName   string
	AuthUUID     string
	AccessToken  string
	UserType     string
	ExtraJVMArgs []string
	ExtraGameArgs []string
	EnvOverrides map[string]string
	Features     rules.Features
}

// classpathSeparator mirrors jdk_check_install.classpath_separator().
func classpathSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}

// DeriveOfflineUUID computes the offline-mode UUID for a player name:
// MD5("OfflinePlayer:<name>") with the version/variant bits patched to
// mark it as a name-derived (version 3) UUID, matching launcher.py's
// offline UUID derivation exactly.
func DeriveOfflineUUID(playerName string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + playerName))
	sum[6] = sum[6]&0x0F | 0x30
	sum[8] = sum[8]&0x3F | 0x80
	return hex.EncodeToString(sum[:])
}

// BuildLaunchPlan assembles the final command, classpath, and
// environment table for launching this version, given the libraries
// list returned by EnqueueLibraries, the client jar path, the assets
// index name, and an optional log config argument.
func (b *Builder) BuildLaunchPlan(opts PlanOptions, clientJar string, libs []string, assetsIndexName string, logConfigArg string) (*LaunchPlan, error) {
	classpath := append([]string{clientJar}, pathsRelativeTo(b.LibsDir(), libs)...)

	features := opts.Features
	if features == nil {
		features = rules.Features{}
	}

	playerName := opts.PlayerName
	authUUID := opts.AuthUUID
	if playerName == "" {
		features["is_demo_user"] = true
	} else if authUUID == "" {
		authUUID = DeriveOfflineUUID(playerName)
	}

	accessToken := opts.AccessToken
	if accessToken == "" {
		accessToken = "0"
	}
	userType := opts.UserType
	if userType == "" {
		userType = "mojang"
	}

	env := map[string]string{
		"game_directory":      opts.GameDir,
		"library_directory":   b.LibsDir(),
		"natives_directory":   b.NativesDir(),
		"classpath_separator":  classpathSeparator(),
		"classpath":            joinClasspath(classpath),
		"game_assets":          b.AssetsLegacyDir(),
		"assets_root":          b.AssetsDir(),
		"assets_index_name":    assetsIndexName,
		"version_name":         b.versionID,
		"version_type":         b.VersionType(),
		"launcher_version":     launcherVersion,
		"launcher_name":        launcherName,
		"auth_player_name":     playerName,
		"auth_access_token":    accessToken,
		"user_type":            userType,
	}
	if authUUID != "" {
		env["auth_uuid"] = authUUID
	}
	for k, v := range opts.EnvOverrides {
		env[k] = v
	}

	var cmd []string
	cmd = append(cmd, opts.JavaPath)
	cmd = append(cmd, b.Arguments(false, features)...)
	cmd = append(cmd, opts.ExtraJVMArgs...)
	if logConfigArg != "" {
		cmd = append(cmd, logConfigArg)
	}
	cmd = append(cmd, b.MainClass())
	cmd = append(cmd, b.Arguments(true, features)...)
	cmd = append(cmd, opts.ExtraGameArgs...)

	for i, argument := range cmd {
		for _, placeholder := range placeholderPattern.FindAllString(argument, -1) {
			name := placeholder[2 : len(placeholder)-1]
			if env[name] == "" && os.Getenv(name) == "" {
				b.log.Info("placeholder has no value, substituting empty string", "placeholder", placeholder)
			}
		}
		cmd[i] = substitutePlaceholders(argument, env)
	}

	return &LaunchPlan{
		JavaPath:          opts.JavaPath,
		Args:              cmd[1:],
		Classpath:         classpath,
		ClasspathJoined:   env["classpath"],
		Env:               env,
		WorkingDir:        opts.GameDir,
		StoppingLogPattern: stoppingLogPattern,
	}, nil
}

func pathsRelativeTo(base string, rel []string) []string {
	out := make([]string, len(rel))
	for i, r := range rel {
		out[i] = filepath.Join(base, r)
	}
	return out
}

func joinClasspath(paths []string) string {
	sep := classpathSeparator()
	out := ""
	for i, p := range paths {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}

// substitutePlaceholders replaces every ${name} token in arg with the
// corresponding value from env, falling back to the process
// environment, and then an empty string, matching launcher.py's
// single-pass-per-argument substitution. It does not log; BuildLaunchPlan
// logs the warning for each placeholder that resolves to empty.
func substitutePlaceholders(arg string, env map[string]string) string {
	placeholders := placeholderPattern.FindAllString(arg, -1)
	seen := make(map[string]bool, len(placeholders))
	result := arg
	for _, placeholder := range placeholders {
		if seen[placeholder] {
			continue
		}
		seen[placeholder] = true

		name := placeholder[2 : len(placeholder)-1]
		value, ok := env[name]
		if !ok || value == "" {
			value = os.Getenv(name)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}
