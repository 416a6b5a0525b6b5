// Package store manages installed version directories and the active
// binaries in the bin directory.
package store

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/foundry-rs/foundryup/internal/apperr"
	"github.com/foundry-rs/foundryup/internal/config"
	"github.com/foundry-rs/foundryup/internal/ui"
)

// VersionProber runs a binary and returns its self-reported version.
type VersionProber func(ctx context.Context, path string) (string, error)

// Store operates on the version directories of one Env.
type Store struct {
	env      *config.Env
	out      *ui.Printer
	logger   config.Logger
	lookPath func(string) (string, error)
	probe    VersionProber
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the debug logger.
func WithLogger(l config.Logger) Option {
	return func(s *Store) { s.logger = config.LoggerOrNop(l) }
}

// WithLookPath replaces the PATH lookup used by the shadowing check.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(s *Store) { s.lookPath = fn }
}

// WithProber replaces the version probe.
func WithProber(fn VersionProber) Option {
	return func(s *Store) { s.probe = fn }
}

// New creates a store writing user-facing lines to out.
func New(env *config.Env, out *ui.Printer, opts ...Option) *Store {
	if out == nil {
		out = ui.Discard()
	}
	s := &Store{
		env:      env,
		out:      out,
		logger:   config.NopLogger(),
		lookPath: exec.LookPath,
		probe:    ProbeVersion,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exists reports whether a version directory is present for repo and tag.
func (s *Store) Exists(repo, tag string) bool {
	info, err := os.Stat(s.env.Layout.VersionDir(repo, tag))
	return err == nil && info.IsDir()
}

// Purge removes the version directory for repo and tag. A missing
// directory is not an error.
func (s *Store) Purge(repo, tag string) error {
	dir := s.env.Layout.VersionDir(repo, tag)
	if err := os.RemoveAll(dir); err != nil {
		return apperr.Filesystem("remove version directory", dir, err)
	}
	return nil
}

// ProbeVersion runs "<path> -V" and returns its trimmed stdout.
func ProbeVersion(ctx context.Context, path string) (string, error) {
	out, err := exec.CommandContext(ctx, path, "-V").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
