package transport

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/foundry-rs/foundryup/internal/platform"
)

type archiveEntry struct {
	name    string
	content string
	mode    int64
	dir     bool
	link    string // symlink target
}

// createTestTarGz writes a tar.gz archive with entries.
func createTestTarGz(t *testing.T, entries []archiveEntry) string {
	t.Helper()

	archivePath := filepath.Join(t.TempDir(), "test.tar.gz")
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer func() { _ = archiveFile.Close() }()

	gzipWriter := gzip.NewWriter(archiveFile)
	defer func() { _ = gzipWriter.Close() }()

	tarWriter := tar.NewWriter(gzipWriter)
	defer func() { _ = tarWriter.Close() }()

	for _, e := range entries {
		header := &tar.Header{Name: e.name, Mode: e.mode, Size: int64(len(e.content)), Typeflag: tar.TypeReg}
		if e.dir {
			header.Typeflag = tar.TypeDir
			header.Size = 0
		}
		if e.link != "" {
			header.Typeflag = tar.TypeSymlink
			header.Linkname = e.link
			header.Size = 0
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			t.Fatalf("failed to write header for %s: %v", e.name, err)
		}
		if !e.dir && e.link == "" {
			if _, err := tarWriter.Write([]byte(e.content)); err != nil {
				t.Fatalf("failed to write content for %s: %v", e.name, err)
			}
		}
	}

	return archivePath
}

// createTestZip writes a zip archive with entries.
func createTestZip(t *testing.T, entries []archiveEntry) string {
	t.Helper()

	archivePath := filepath.Join(t.TempDir(), "test.zip")
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer func() { _ = archiveFile.Close() }()

	zipWriter := zip.NewWriter(archiveFile)
	defer func() { _ = zipWriter.Close() }()

	for _, e := range entries {
		header := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		mode := os.FileMode(e.mode)
		if e.dir {
			mode |= os.ModeDir
		}
		header.SetMode(mode)
		w, err := zipWriter.CreateHeader(header)
		if err != nil {
			t.Fatalf("failed to create entry %s: %v", e.name, err)
		}
		if !e.dir {
			if _, err := w.Write([]byte(e.content)); err != nil {
				t.Fatalf("failed to write entry %s: %v", e.name, err)
			}
		}
	}

	return archivePath
}

func TestExtractTarGz(t *testing.T) {
	tests := []struct {
		name    string
		entries []archiveEntry
		wantErr bool
	}{
		{
			name: "flat_binaries",
			entries: []archiveEntry{
				{name: "forge", content: "forge-bin", mode: 0755},
				{name: "cast", content: "cast-bin", mode: 0644},
			},
		},
		{
			name: "nested_directory",
			entries: []archiveEntry{
				{name: "docs/", dir: true, mode: 0755},
				{name: "docs/README", content: "readme", mode: 0644},
			},
		},
		{
			name: "path_traversal_rejected",
			entries: []archiveEntry{
				{name: "../evil", content: "evil", mode: 0644},
			},
			wantErr: true,
		},
		{
			name: "absolute_path_rejected",
			entries: []archiveEntry{
				{name: "/etc/evil", content: "evil", mode: 0644},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archivePath := createTestTarGz(t, tt.entries)
			destDir := t.TempDir()

			err := ExtractTarGz(archivePath, destDir, true)
			if tt.wantErr {
				if !errors.Is(err, ErrIllegalPath) {
					t.Fatalf("expected ErrIllegalPath, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractTarGz() error = %v", err)
			}

			for _, e := range tt.entries {
				if e.dir {
					continue
				}
				content, err := os.ReadFile(filepath.Join(destDir, e.name))
				if err != nil {
					t.Fatalf("read %s: %v", e.name, err)
				}
				if string(content) != e.content {
					t.Errorf("%s content = %q, want %q", e.name, content, e.content)
				}
			}
		})
	}
}

func TestExtractTarGz_SymlinkChainStaysInside(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	parent := t.TempDir()
	destDir := filepath.Join(parent, "versions", "v1")
	archivePath := createTestTarGz(t, []archiveEntry{
		{name: "x", link: "."},
		{name: "x/y", link: ".."},
		{name: "x/y/escaped", content: "evil", mode: 0644},
	})

	if err := ExtractTarGz(archivePath, destDir, true); err == nil {
		t.Fatal("expected an error for an entry reached through escaping links")
	}
	if _, err := os.Lstat(filepath.Join(parent, "versions", "escaped")); !os.IsNotExist(err) {
		t.Fatalf("file written outside the destination: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(destDir, "escaped")); !os.IsNotExist(err) {
		t.Fatalf("file written through the link chain: %v", err)
	}
}

func TestExtractTarGz_LocalSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	destDir := t.TempDir()
	archivePath := createTestTarGz(t, []archiveEntry{
		{name: "bin/", dir: true, mode: 0755},
		{name: "bin/forge", content: "forge-bin", mode: 0755},
		{name: "forge", link: "bin/forge"},
	})

	if err := ExtractTarGz(archivePath, destDir, true); err != nil {
		t.Fatalf("ExtractTarGz() error = %v", err)
	}
	content, err := os.ReadFile(filepath.Join(destDir, "forge"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "forge-bin" {
		t.Errorf("forge content = %q, want forge-bin", content)
	}
}

func TestExtractZip_SkipsEscapingEntries(t *testing.T) {
	parent := t.TempDir()
	destDir := filepath.Join(parent, "dest")

	archivePath := createTestZip(t, []archiveEntry{
		{name: "forge", content: "forge-bin", mode: 0755},
		{name: "../escaped", content: "evil", mode: 0644},
		{name: "sub/../../escaped2", content: "evil", mode: 0644},
		{name: "sub/", dir: true, mode: 0755},
		{name: "sub/file", content: "nested", mode: 0644},
	})

	if err := Extract(archivePath, destDir, platform.Win32.Capabilities()); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for _, name := range []string{"escaped", "escaped2"} {
		if _, err := os.Stat(filepath.Join(parent, name)); !os.IsNotExist(err) {
			t.Errorf("entry %s escaped the destination", name)
		}
	}

	for name, want := range map[string]string{"forge": "forge-bin", "sub/file": "nested"} {
		got, err := os.ReadFile(filepath.Join(destDir, filepath.FromSlash(name)))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestExtractZip_AppliesModes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions not available")
	}

	archivePath := createTestZip(t, []archiveEntry{
		{name: "script", content: "#!/bin/sh", mode: 0750},
		{name: "data", content: "x", mode: 0600},
	})
	destDir := t.TempDir()

	if err := ExtractZip(archivePath, destDir, true); err != nil {
		t.Fatalf("ExtractZip() error = %v", err)
	}

	for name, want := range map[string]os.FileMode{"script": 0750, "data": 0600} {
		info, err := os.Stat(filepath.Join(destDir, name))
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != want {
			t.Errorf("%s mode = %v, want %v", name, info.Mode().Perm(), want)
		}
	}
}

func TestExtract_DispatchesOnFormat(t *testing.T) {
	tarPath := createTestTarGz(t, []archiveEntry{{name: "forge", content: "tar", mode: 0644}})
	destDir := t.TempDir()

	if err := Extract(tarPath, destDir, platform.Linux.Capabilities()); err != nil {
		t.Fatalf("Extract(tar.gz) error = %v", err)
	}
	if got, _ := os.ReadFile(filepath.Join(destDir, "forge")); string(got) != "tar" {
		t.Errorf("forge = %q, want tar", got)
	}

	// A tar.gz is not a valid zip
	if err := Extract(tarPath, t.TempDir(), platform.Win32.Capabilities()); err == nil {
		t.Error("expected error extracting tar.gz as zip")
	}
}

func TestMarkTopLevelExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions not available")
	}

	dir := t.TempDir()
	for _, name := range []string{"forge", "cast"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "share"), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "share", "nested"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := MarkTopLevelExecutable(dir); err != nil {
		t.Fatalf("MarkTopLevelExecutable() error = %v", err)
	}

	for _, name := range []string{"forge", "cast"} {
		info, _ := os.Stat(filepath.Join(dir, name))
		if info.Mode().Perm() != 0755 {
			t.Errorf("%s mode = %v, want 0755", name, info.Mode().Perm())
		}
	}
	info, _ := os.Stat(filepath.Join(dir, "share", "nested"))
	if info.Mode().Perm() != 0644 {
		t.Errorf("nested file mode changed to %v", info.Mode().Perm())
	}
	info, _ = os.Stat(filepath.Join(dir, "share"))
	if info.Mode().Perm() != 0700 {
		t.Errorf("directory mode changed to %v", info.Mode().Perm())
	}
}

func TestComputeDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ComputeDigest(path)
	if err != nil {
		t.Fatalf("ComputeDigest() error = %v", err)
	}
	const want = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("ComputeDigest() = %s, want %s", got, want)
	}

	if _, err := ComputeDigest(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
