// Package apperr defines the error taxonomy shared by every foundryup
// component. Each failure carries a kind sentinel so callers can branch with
// errors.Is, plus the operation and subject (URL or path) it concerned.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrConfig       = errors.New("config error")
	ErrNetwork      = errors.New("network error")
	ErrIntegrity    = errors.New("integrity error")
	ErrBuild        = errors.New("build error")
	ErrNotInstalled = errors.New("not installed")
	ErrFilesystem   = errors.New("filesystem error")
)

// Error is a classified failure with accumulated context.
type Error struct {
	Kind    error  // one of the Err* sentinels
	Op      string // operation, e.g. "download archive"
	Subject string // URL, path or version the operation concerned
	Err     error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Subject != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Subject)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New builds a classified error.
func New(kind error, op, subject string, err error) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: err}
}

// Config reports an unresolvable configuration.
func Config(op string, err error) error {
	return New(ErrConfig, op, "", err)
}

// Network reports a failed HTTP request against url.
func Network(url string, err error) error {
	return New(ErrNetwork, "fetch", url, err)
}

// Integrity reports malformed attestation data or a digest mismatch.
func Integrity(op string, err error) error {
	return New(ErrIntegrity, op, "", err)
}

// Build reports a failed version-control or build subprocess.
func Build(op, subject string, err error) error {
	return New(ErrBuild, op, subject, err)
}

// NotInstalled reports activation of a version with no on-disk directory.
func NotInstalled(version string) error {
	return New(ErrNotInstalled, "version", version, errors.New("not installed"))
}

// Filesystem reports a failed directory, copy or permission operation on path.
func Filesystem(op, path string, err error) error {
	return New(ErrFilesystem, op, path, err)
}

// KindOf returns the kind sentinel of err, or nil if err is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrConfig, ErrNetwork, ErrIntegrity, ErrBuild, ErrNotInstalled, ErrFilesystem} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
