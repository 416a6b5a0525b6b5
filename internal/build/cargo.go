// Package build runs the cargo toolchain for source and local builds.
package build

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/foundry-rs/foundryup/internal/apperr"
)

// DefaultBinary is the build tool looked up on PATH.
const DefaultBinary = "cargo"

// Builder compiles a checkout in release mode.
type Builder interface {
	Build(ctx context.Context, dir string, jobs uint) error
}

// Cargo implements Builder by invoking cargo.
type Cargo struct {
	bin    string
	stdout io.Writer
	stderr io.Writer
}

// Option configures Cargo.
type Option func(*Cargo)

// WithBinary overrides the cargo executable.
func WithBinary(path string) Option {
	return func(c *Cargo) { c.bin = path }
}

// WithOutput streams the build output to stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *Cargo) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// NewCargo creates a cargo runner. Output is discarded unless WithOutput is
// given.
func NewCargo(opts ...Option) *Cargo {
	c := &Cargo{bin: DefaultBinary, stdout: io.Discard, stderr: io.Discard}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Args returns the cargo arguments for a release build of every binary.
// A zero jobs count leaves parallelism to cargo.
func Args(jobs uint) []string {
	args := []string{"build", "--bins", "--release"}
	if jobs > 0 {
		args = append(args, "--jobs", strconv.FormatUint(uint64(jobs), 10))
	}
	return args
}

// Build runs cargo in dir. A missing toolchain or a non-zero exit is an
// apperr.ErrBuild.
func (c *Cargo) Build(ctx context.Context, dir string, jobs uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.bin, Args(jobs)...)
	cmd.Dir = dir
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	if err := cmd.Run(); err != nil {
		return apperr.Build("cargo build", dir, err)
	}
	return nil
}

// ArtifactDir returns where a release build of dir leaves its binaries.
func ArtifactDir(dir string) string {
	return filepath.Join(dir, "target", "release")
}
