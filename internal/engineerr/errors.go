// Package engineerr defines the error taxonomy surfaced by every
// Engine component, so callers can branch on errors.Is/errors.As
// without caring which package produced the failure.
package engineerr

import "fmt"

// Kind identifies the category of failure.
type Kind string

const (
	MissingField               Kind = "missing_field"
	ChecksumMismatch            Kind = "checksum_mismatch"
	DownloadFailed              Kind = "download_failed"
	UnpackFailed                Kind = "unpack_failed"
	CopyFailed                  Kind = "copy_failed"
	UnsupportedPlatform         Kind = "unsupported_platform"
	JavaUnavailable             Kind = "java_unavailable"
	VersionRequiresNewerLauncher Kind = "version_requires_newer_launcher"
	Interrupted                 Kind = "interrupted"
)

// Error wraps an underlying error with a Kind and the identifier of the
// artifact, version, or step it occurred on.
type Error struct {
	Kind   Kind
	Target string
	Err    error
}

func (e *Error) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Kind, e.Target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an *Error for the given kind, target, and cause.
func New(kind Kind, target string, err error) *Error {
	return &Error{Kind: kind, Target: target, Err: err}
}

// Is reports whether target is an *Error of the same Kind, so
// errors.Is(err, &engineerr.Error{Kind: engineerr.ChecksumMismatch})
// matches any error of that kind in the chain; callers more commonly
// use errors.As to pull out the *Error and inspect its Kind field
// directly.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
