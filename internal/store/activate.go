package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/foundry-rs/foundryup/internal/apperr"
)

// Activate copies the binaries of an installed version into the bin
// directory. The binary set is the one repo ships, whichever network is
// selected; binaries absent from the version directory are skipped.
//
// Each binary is copied to "<dest>.tmp" and renamed into place, so calling
// Activate twice leaves the same end state and an interrupted copy leaves
// no partial active binary behind.
func (s *Store) Activate(ctx context.Context, repo, tag string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	versionDir := s.env.Layout.VersionDir(repo, tag)
	if info, err := os.Stat(versionDir); err != nil || !info.IsDir() {
		return apperr.NotInstalled(tag)
	}
	if err := os.MkdirAll(s.env.Layout.Bin, 0755); err != nil {
		return apperr.Filesystem("create directory", s.env.Layout.Bin, err)
	}

	target := s.env.Target
	for _, bin := range s.env.BinsFor(repo) {
		src := filepath.Join(versionDir, target.ExeName(bin))
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("binary not shipped by version", "binary", bin, "version", tag)
			continue
		}

		dest := s.env.Layout.BinPath(bin, target)
		if err := s.install(src, dest); err != nil {
			return err
		}

		if version, err := s.probe(ctx, dest); err == nil && version != "" {
			s.out.Say("use - %s", version)
		} else {
			s.out.Say("use - %s", bin)
		}

		s.warnIfShadowed(bin, dest)
	}
	return nil
}

// install places src at dest through a temporary sibling file.
func (s *Store) install(src, dest string) error {
	tmp := dest + ".tmp"
	_ = os.Remove(tmp)

	if err := copyFile(src, tmp); err != nil {
		_ = os.Remove(tmp)
		return apperr.Filesystem("copy binary", dest, err)
	}
	if s.env.Target.Capabilities().PosixModes {
		if err := os.Chmod(tmp, 0755); err != nil {
			_ = os.Remove(tmp)
			return apperr.Filesystem("set permissions", tmp, err)
		}
	}

	// Windows refuses to rename over an existing file
	if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_ = os.Remove(tmp)
		return apperr.Filesystem("remove active binary", dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return apperr.Filesystem("activate binary", dest, err)
	}
	return nil
}

// Link exposes binaries built in dir through the bin directory. Targets
// with symlink support get symlinks, others get copies.
func (s *Store) Link(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	if err := os.MkdirAll(s.env.Layout.Bin, 0755); err != nil {
		return apperr.Filesystem("create directory", s.env.Layout.Bin, err)
	}

	target := s.env.Target
	for _, bin := range s.env.Bins() {
		src := filepath.Join(dir, target.ExeName(bin))
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		dest := s.env.Layout.BinPath(bin, target)

		if !target.Capabilities().Symlinks {
			if err := s.install(src, dest); err != nil {
				return err
			}
		} else {
			abs, err := filepath.Abs(src)
			if err != nil {
				return apperr.Filesystem("resolve path", src, err)
			}
			if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return apperr.Filesystem("remove active binary", dest, err)
			}
			if err := os.Symlink(abs, dest); err != nil {
				return apperr.Filesystem("link binary", dest, err)
			}
		}
		s.out.Say("linked %s -> %s", dest, src)
		s.warnIfShadowed(bin, dest)
	}
	return nil
}

// warnIfShadowed warns when another executable named bin precedes dest on
// PATH. It never fails.
func (s *Store) warnIfShadowed(bin, dest string) {
	found, err := s.lookPath(bin)
	if err != nil {
		return
	}
	if samePath(found, dest) {
		return
	}
	s.out.Warn("there are multiple binaries with the name '%s' present in your PATH.\n"+
		"This may be the result of installing '%s' using another method, like Cargo or other package managers.\n"+
		"You may need to run 'rm %s' or move '%s' in your PATH to allow the newly installed version to take precedence!",
		bin, bin, found, s.env.Layout.Bin)
}

func samePath(a, b string) bool {
	ra, err := filepath.EvalSymlinks(a)
	if err != nil {
		ra = a
	}
	rb, err := filepath.EvalSymlinks(b)
	if err != nil {
		rb = b
	}
	ra, _ = filepath.Abs(ra)
	rb, _ = filepath.Abs(rb)
	return ra == rb
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
