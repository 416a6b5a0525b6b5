// Package attest fetches release attestations and checks installed binaries
// against the digests they declare.
//
// An attestation is optional: when a release publishes none, Fetch returns
// a nil Bundle and installs proceed unverified. When one is published, any
// format drift in it is a hard apperr.ErrIntegrity.
package attest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/foundry-rs/foundryup/internal/apperr"
	"github.com/foundry-rs/foundryup/internal/platform"
	"github.com/foundry-rs/foundryup/internal/transport"
)

// Bundle maps a binary name to its expected lowercase hex sha256 digest.
type Bundle map[string]string

// Lookup returns the expected digest for bin, trying "bin" then "bin.exe".
func (b Bundle) Lookup(bin string) (string, bool) {
	if d, ok := b[bin]; ok {
		return d, true
	}
	d, ok := b[bin+".exe"]
	return d, ok
}

// Status is the verification outcome for one binary.
type Status int

const (
	StatusOK Status = iota
	StatusMissingBinary
	StatusMissingDigest
	StatusMismatch
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissingBinary:
		return "missing binary"
	case StatusMissingDigest:
		return "no expected digest"
	case StatusMismatch:
		return "digest mismatch"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the verification outcome for one binary.
type Result struct {
	Binary   string
	Path     string
	Status   Status
	Expected string
	Actual   string
}

func (r Result) Error() string {
	switch r.Status {
	case StatusMismatch:
		return fmt.Sprintf("%s: digest mismatch (expected %s, got %s)", r.Binary, r.Expected, r.Actual)
	case StatusMissingBinary:
		return fmt.Sprintf("%s: binary not found at %s", r.Binary, r.Path)
	default:
		return fmt.Sprintf("%s: %s", r.Binary, r.Status)
	}
}

// Report holds one Result per verified binary, in the order requested.
type Report []Result

// OK reports whether every binary verified.
func (r Report) OK() bool {
	return len(r.Failures()) == 0
}

// Failures returns the results that did not verify.
func (r Report) Failures() []Result {
	var failed []Result
	for _, res := range r {
		if res.Status != StatusOK {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err returns an apperr.ErrIntegrity naming every failed binary, or nil.
func (r Report) Err() error {
	failed := r.Failures()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, len(failed))
	for i, res := range failed {
		errs[i] = res
	}
	return apperr.Integrity("verify installed binaries", errors.Join(errs...))
}

// Verify hashes each of bins inside dir and compares it with the bundle.
// Unreadable files are reported as missing.
func (b Bundle) Verify(dir string, bins []string, target platform.Target) Report {
	report := make(Report, 0, len(bins))
	for _, bin := range bins {
		res := Result{Binary: bin, Path: filepath.Join(dir, target.ExeName(bin))}

		expected, ok := b.Lookup(bin)
		if !ok {
			res.Status = StatusMissingDigest
			report = append(report, res)
			continue
		}
		res.Expected = expected

		if info, err := os.Stat(res.Path); err != nil || !info.Mode().IsRegular() {
			res.Status = StatusMissingBinary
			report = append(report, res)
			continue
		}

		actual, err := transport.ComputeDigest(res.Path)
		if err != nil {
			res.Status = StatusMissingBinary
			report = append(report, res)
			continue
		}
		res.Actual = actual
		if actual != expected {
			res.Status = StatusMismatch
		}
		report = append(report, res)
	}
	return report
}

// Matches reports whether dir already holds every one of bins with the
// expected digest. It is the cache check that lets a reinstall skip the
// download.
func (b Bundle) Matches(dir string, bins []string, target platform.Target) bool {
	if _, err := os.Stat(dir); err != nil {
		return false
	}
	return b.Verify(dir, bins, target).OK()
}
