package transport

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/foundry-rs/foundryup/internal/apperr"
	"github.com/foundry-rs/foundryup/internal/platform"
)

// ErrIllegalPath is returned for tar entries that would escape the destination.
var ErrIllegalPath = errors.New("illegal file path in archive")

// Extract unpacks archivePath into destDir using the format and mode
// handling of caps.
func Extract(archivePath, destDir string, caps platform.Capabilities) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return apperr.Filesystem("create directory", destDir, err)
	}

	switch caps.Format {
	case platform.Zip:
		return ExtractZip(archivePath, destDir, caps.PosixModes)
	default:
		return ExtractTarGz(archivePath, destDir, caps.PosixModes)
	}
}

// ExtractTarGz streams a .tar.gz archive into destDir. Entries resolving
// outside destDir abort the extraction with ErrIllegalPath. Every entry is
// created through an os.Root, so a chain of symlinks cannot redirect a
// later entry out of destDir either.
func ExtractTarGz(archivePath, destDir string, posixModes bool) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return apperr.Filesystem("open archive", archivePath, err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	root, err := openRoot(destDir)
	if err != nil {
		return err
	}
	defer root.Close()

	tarReader := tar.NewReader(gzipReader)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		// ErrInsecurePath comes with a usable header; IsLocal below rejects it
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("read tar header: %w", err)
		}

		if !filepath.IsLocal(header.Name) {
			return fmt.Errorf("%w: %s", ErrIllegalPath, header.Name)
		}
		name := filepath.Clean(header.Name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := root.MkdirAll(name, 0755); err != nil {
				return apperr.Filesystem("create directory", filepath.Join(destDir, name), err)
			}

		case tar.TypeReg:
			mode := os.FileMode(0644)
			if posixModes && header.Mode&0777 != 0 {
				mode = os.FileMode(header.Mode & 0777)
			}
			if err := writeFile(root, destDir, name, tarReader, mode, posixModes); err != nil {
				return err
			}

		case tar.TypeSymlink:
			// Links must resolve inside the destination
			resolved := filepath.Join(filepath.Dir(name), header.Linkname)
			if filepath.IsAbs(header.Linkname) || !filepath.IsLocal(resolved) {
				return fmt.Errorf("%w: %s -> %s", ErrIllegalPath, header.Name, header.Linkname)
			}
			if dir := filepath.Dir(name); dir != "." {
				if err := root.MkdirAll(dir, 0755); err != nil {
					return apperr.Filesystem("create directory", filepath.Join(destDir, dir), err)
				}
			}
			if err := root.Symlink(header.Linkname, name); err != nil {
				return apperr.Filesystem("create symlink", filepath.Join(destDir, name), err)
			}

		default:
			// Skip other types (char devices, block devices, etc.)
			continue
		}
	}

	return nil
}

// ExtractZip unpacks a zip archive into destDir.
//
// Entries whose name is not local to destDir (absolute, or escaping via
// "..") are skipped rather than written. Symlink entries are skipped too.
// When posixModes is set, the permission bits stored in the archive are
// applied to each file.
func ExtractZip(archivePath, destDir string, posixModes bool) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("open zip archive %s: %w", archivePath, err)
	}
	defer r.Close()

	root, err := openRoot(destDir)
	if err != nil {
		return err
	}
	defer root.Close()

	for _, f := range r.File {
		if !filepath.IsLocal(f.Name) {
			continue
		}
		name := filepath.Clean(f.Name)
		info := f.FileInfo()

		if info.IsDir() {
			if err := root.MkdirAll(name, 0755); err != nil {
				return apperr.Filesystem("create directory", filepath.Join(destDir, name), err)
			}
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 || !info.Mode().IsRegular() {
			continue
		}

		mode := os.FileMode(0644)
		if posixModes && info.Mode().Perm() != 0 {
			mode = info.Mode().Perm()
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}
		err = writeFile(root, destDir, name, rc, mode, posixModes)
		rc.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// openRoot creates destDir if needed and opens it as the only directory
// extraction may write beneath.
func openRoot(destDir string) (*os.Root, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, apperr.Filesystem("create directory", destDir, err)
	}
	root, err := os.OpenRoot(destDir)
	if err != nil {
		return nil, apperr.Filesystem("open directory", destDir, err)
	}
	return root, nil
}

// writeFile creates name (and its parents) inside root from r. destDir is
// only used in error messages.
func writeFile(root *os.Root, destDir, name string, r io.Reader, mode os.FileMode, posixModes bool) error {
	target := filepath.Join(destDir, name)
	if dir := filepath.Dir(name); dir != "." {
		if err := root.MkdirAll(dir, 0755); err != nil {
			return apperr.Filesystem("create directory", filepath.Join(destDir, dir), err)
		}
	}

	out, err := root.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return apperr.Filesystem("create file", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return apperr.Filesystem("write file", target, err)
	}
	if err := out.Close(); err != nil {
		return apperr.Filesystem("close file", target, err)
	}

	// OpenFile is subject to umask and does not touch existing files
	if posixModes {
		if err := root.Chmod(name, mode); err != nil {
			return apperr.Filesystem("set permissions", target, err)
		}
	}
	return nil
}

// MarkTopLevelExecutable sets mode 0755 on every regular file directly
// inside dir. Archives cannot be trusted to carry executable bits.
func MarkTopLevelExecutable(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return apperr.Filesystem("read directory", dir, err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Chmod(path, 0755); err != nil {
			return apperr.Filesystem("set permissions", path, err)
		}
	}
	return nil
}
