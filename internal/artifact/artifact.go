// Package artifact describes a single downloadable, optionally
// unpackable and copyable, file and verifies it against a declared
// checksum once fetched.
package artifact

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// checksum algorithm precedence, strongest-ignoring: the first one
// present on the descriptor wins, matching artifact.py's checksum_alg.
var checksumAlgorithms = []string{"sha1", "md5", "sha256", "sha512"}

const chunkSize = 8192

// Descriptor is the raw JSON-shaped fields an Artifact is built from,
// mirroring a library/download entry from a version record.
type Descriptor struct {
	ID     string `json:"id,omitempty"`
	Path   string `json:"path,omitempty"`
	Name   string `json:"name,omitempty"`
	URL    string `json:"url,omitempty"`
	Size   int64  `json:"size,omitempty"`
	SHA1   string `json:"sha1,omitempty"`
	MD5    string `json:"md5,omitempty"`
	SHA256 string `json:"sha256,omitempty"`
	SHA512 string `json:"sha512,omitempty"`
}

// Artifact is the immutable descriptor of a single file the resolver
// can fetch, unpack, and copy.
type Artifact struct {
	ParentDir       string
	Path            string
	URL             string
	Size            int64
	ChecksumAlg     string
	Checksum        string
	UnpackInto      string
	ExcludePrefixes []string
	CopyTo          string
}

// New builds an Artifact from a descriptor, normalizing old-style Maven
// coordinate names ("group:name:version") into the
// path/URL layout Mojang uses for modern descriptors, and applying an
// explicit targetFile override in place of descriptor.Path when given.
// unpackInto, excludePrefixes, and copyTo are passed straight through,
// matching Artifact.__init__'s constructor parameters.
func New(d Descriptor, parentDir, targetFile, unpackInto string, excludePrefixes []string, copyTo string) (Artifact, error) {
	path := d.Path
	url := d.URL

	if targetFile != "" {
		path = targetFile
	}

	if path == "" && d.Name != "" {
		normalizedPath, err := normalizeCoordinate(d.Name)
		if err != nil {
			return Artifact{}, err
		}
		path = normalizedPath
		if url != "" {
			if !strings.HasSuffix(url, "/") {
				url += "/"
			}
			url += normalizedPath
		}
	}

	alg, checksum := "", ""
	for _, a := range checksumAlgorithms {
		switch a {
		case "sha1":
			if d.SHA1 != "" {
				alg, checksum = "sha1", d.SHA1
			}
		case "md5":
			if d.MD5 != "" {
				alg, checksum = "md5", d.MD5
			}
		case "sha256":
			if d.SHA256 != "" {
				alg, checksum = "sha256", d.SHA256
			}
		case "sha512":
			if d.SHA512 != "" {
				alg, checksum = "sha512", d.SHA512
			}
		}
		if alg != "" {
			break
		}
	}

	return Artifact{
		ParentDir:       parentDir,
		Path:            path,
		URL:             url,
		Size:            d.Size,
		ChecksumAlg:     alg,
		Checksum:        checksum,
		UnpackInto:      unpackInto,
		ExcludePrefixes: excludePrefixes,
		CopyTo:          copyTo,
	}, nil
}

// normalizeCoordinate turns "group:name:version" into the
// Maven-repository-style relative path Mojang's downloads use (any other
// number of colon-separated parts is rejected with an error), including
// the net.minecraftforge quirk where the universal jar's filename
// carries a literal "-universal" suffix after the version rather than
// matching the plain "name-version.jar" pattern every other group uses.
func normalizeCoordinate(name string) (string, error) {
	parts := strings.Split(name, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("unknown artifact name format: %s", name)
	}
	group, artifactName, version := parts[0], parts[1], parts[2]
	groupPath := strings.ReplaceAll(group, ".", "/")

	fileStem := fmt.Sprintf("%s-%s", artifactName, version)
	if group == "net.minecraftforge" {
		fileStem += "-universal"
	}
	uri := fmt.Sprintf("%s/%s/%s/%s", groupPath, artifactName, version, fileStem)

	switch {
	case strings.HasSuffix(uri, ".jar"), strings.HasSuffix(uri, ".zip"),
		strings.HasSuffix(uri, ".dll"), strings.HasSuffix(uri, ".so"):
	default:
		uri += ".jar"
	}
	return uri, nil
}

// FullPath returns the absolute on-disk path of the artifact.
func (a Artifact) FullPath() string {
	return filepath.Join(a.ParentDir, a.Path)
}

// Exists reports whether the artifact's target file is already present.
func (a Artifact) Exists() bool {
	if a.Path == "" {
		return false
	}
	_, err := os.Stat(a.FullPath())
	return err == nil
}

// HasChecksum reports whether a checksum was declared for this artifact.
func (a Artifact) HasChecksum() bool {
	return a.ChecksumAlg != ""
}

// Verify recomputes the artifact's checksum and compares it against the
// declared value. It returns false, nil if no checksum was declared at
// all, matching artifact.py's calculate_actual_checksum behavior of
// returning None rather than raising when there is nothing to compare.
func (a Artifact) Verify() (bool, error) {
	if !a.HasChecksum() {
		return false, nil
	}
	actual, err := a.ActualChecksum()
	if err != nil {
		return false, err
	}
	return strings.EqualFold(actual, a.Checksum), nil
}

// ActualChecksum streams the artifact's on-disk bytes through its
// declared checksum algorithm and returns the hex digest.
func (a Artifact) ActualChecksum() (string, error) {
	if !a.Exists() {
		return "", fmt.Errorf("artifact does not exist: %s", a.FullPath())
	}
	if !a.HasChecksum() {
		return "", fmt.Errorf("no checksum algorithm declared for %s", a.Path)
	}

	var h hash.Hash
	switch a.ChecksumAlg {
	case "sha1":
		h = sha1.New()
	case "md5":
		h = md5.New()
	case "sha256":
		h = sha256.New()
	case "sha512":
		h = sha512.New()
	default:
		return "", fmt.Errorf("unknown checksum algorithm: %s", a.ChecksumAlg)
	}

	f, err := os.Open(a.FullPath())
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
