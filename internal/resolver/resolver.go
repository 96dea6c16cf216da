// Package resolver implements the Artifact Resolver: given an
// artifact.Artifact, it ensures the file exists on disk with a verified
// checksum, retrying a flat number of times with a flat delay (no
// exponential backoff), then performs any requested unpack and copy
// steps.
package resolver

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/brackenforge/mcengine/internal/artifact"
	"github.com/brackenforge/mcengine/internal/engineerr"
)

const (
	chunkSize       = 8192
	requestTimeout  = 240 * time.Second
	downloadAttempts = 3
	attemptDelay    = time.Second
)

// Resolver fetches, verifies, unpacks, and copies artifacts. It holds
// no state across calls; it is safe for concurrent use by multiple
// Worker Pool workers.
type Resolver struct {
	httpClient     *http.Client
	log            logr.Logger
	verifyChecksum bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the injected logging sink.
func WithLogger(log logr.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// WithChecksumVerification toggles checksum verification; it defaults
// to enabled, matching resolve_artifact's verify_checksums=True default.
func WithChecksumVerification(verify bool) Option {
	return func(r *Resolver) { r.verifyChecksum = verify }
}

// New builds a Resolver. It deliberately does not use
// hashicorp/go-retryablehttp: that client's default backoff is
// exponential, which would violate the flat attemptDelay this package
// implements by hand.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		httpClient:     &http.Client{Timeout: requestTimeout},
		log:            logr.Discard(),
		verifyChecksum: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve ensures a is present, verified, unpacked, and copied,
// returning its final on-disk path. It mirrors resolve_artifact's
// check-exists / download-with-retry / unpack-copy sequence exactly,
// including the flat retry delay and attempt cap.
func (r *Resolver) Resolve(ctx context.Context, a artifact.Artifact) (string, error) {
	path := a.FullPath()

	if a.Exists() {
		ok, err := r.verify(a)
		if err != nil {
			return "", err
		}
		if ok {
			r.log.V(1).Info("artifact exists", "path", path)
			if err := r.unpackCopy(a, path); err != nil {
				return "", err
			}
			return path, nil
		}
	}

	if a.URL == "" {
		return "", engineerr.New(engineerr.MissingField, a.Path, fmt.Errorf("no url specified"))
	}
	if a.Path == "" {
		return "", engineerr.New(engineerr.MissingField, a.Path, fmt.Errorf("no target path specified"))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", engineerr.New(engineerr.DownloadFailed, a.Path, err)
	}

	var lastErr error
	for attempt := 1; attempt <= downloadAttempts; attempt++ {
		r.log.Info("downloading artifact", "url", a.URL, "attempt", attempt, "of", downloadAttempts)
		lastErr = r.fetch(ctx, a.URL, path)

		if lastErr == nil {
			ok, err := r.verify(a)
			if err != nil {
				lastErr = err
			} else if ok {
				break
			} else {
				lastErr = engineerr.New(engineerr.ChecksumMismatch, a.Path, fmt.Errorf("checksum mismatch after download"))
			}
		}

		if attempt < downloadAttempts {
			select {
			case <-ctx.Done():
				return "", engineerr.New(engineerr.Interrupted, a.Path, ctx.Err())
			case <-time.After(attemptDelay):
			}
		}
	}

	if lastErr != nil {
		r.log.Error(lastErr, "giving up on artifact", "path", a.Path, "attempts", downloadAttempts)
		return "", engineerr.New(engineerr.DownloadFailed, a.Path, lastErr)
	}

	if err := r.unpackCopy(a, path); err != nil {
		return "", err
	}

	return path, nil
}

func (r *Resolver) verify(a artifact.Artifact) (bool, error) {
	if !r.verifyChecksum || !a.HasChecksum() {
		return a.Exists(), nil
	}
	return a.Verify()
}

func (r *Resolver) fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(f, resp.Body, buf); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// unpackCopy performs the unpack-into-with-exclusions and copy-to steps.
// Unpack uses stdlib archive/zip directly: it needs per-entry exclusion
// by path prefix, which mholt/archiver/v3's bulk extraction does not
// expose.
func (r *Resolver) unpackCopy(a artifact.Artifact, path string) error {
	if a.UnpackInto != "" {
		r.log.V(1).Info("unpacking artifact", "path", path, "into", a.UnpackInto)
		if err := unpackZip(path, a.UnpackInto, a.ExcludePrefixes); err != nil {
			return engineerr.New(engineerr.UnpackFailed, a.Path, err)
		}
	}

	if a.CopyTo != "" {
		if _, err := os.Stat(a.CopyTo); err == nil {
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(a.CopyTo), 0o755); err != nil {
			return engineerr.New(engineerr.CopyFailed, a.Path, err)
		}
		r.log.V(1).Info("copying artifact", "path", path, "to", a.CopyTo)
		if err := copyFile(path, a.CopyTo); err != nil {
			return engineerr.New(engineerr.CopyFailed, a.Path, err)
		}
	}

	return nil
}

func unpackZip(src, destDir string, excludePrefixes []string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		excluded := false
		for _, prefix := range excludePrefixes {
			if strings.HasPrefix(f.Name, prefix) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}

		target := filepath.Join(destDir, f.Name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}
		_, copyErr := io.Copy(out, rc)
		out.Close()
		rc.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
