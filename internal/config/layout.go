package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/foundry-rs/foundryup/internal/apperr"
	"github.com/foundry-rs/foundryup/internal/platform"
)

// Layout is the set of on-disk locations derived from a root directory.
type Layout struct {
	Root     string
	Versions string
	Bin      string
	Man      string
}

// NewLayout derives every location from root.
func NewLayout(root string) *Layout {
	return &Layout{
		Root:     root,
		Versions: filepath.Join(root, "versions"),
		Bin:      filepath.Join(root, "bin"),
		Man:      filepath.Join(root, "share", "man", "man1"),
	}
}

// EnsureDirectories creates the versions, bin and man directories.
// It is idempotent.
func (l *Layout) EnsureDirectories() error {
	for _, dir := range []string{l.Versions, l.Bin, l.Man} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperr.Filesystem("create directory", dir, err)
		}
	}
	return nil
}

// VersionDir returns versions/<owner>/<repo>/<tag>.
func (l *Layout) VersionDir(repo, tag string) string {
	return filepath.Join(l.Versions, filepath.FromSlash(repo), tag)
}

// RepoVersionsDir returns versions/<owner>/<repo>.
func (l *Layout) RepoVersionsDir(repo string) string {
	return filepath.Join(l.Versions, filepath.FromSlash(repo))
}

// RepoDir returns the clone location used for source builds of repo,
// <root>/<owner>/<repo>.
func (l *Layout) RepoDir(repo string) string {
	return filepath.Join(l.Root, filepath.FromSlash(repo))
}

// BinPath returns the active binary path for name on target.
func (l *Layout) BinPath(name string, target platform.Target) string {
	return filepath.Join(l.Bin, target.ExeName(name))
}

// SettingsPath returns the location of the optional settings file.
func (l *Layout) SettingsPath() string {
	return filepath.Join(l.Root, SettingsFileName)
}

// RepoOwner returns the owner part of an "owner/repo" identifier.
func RepoOwner(repo string) string {
	owner, _, _ := strings.Cut(repo, "/")
	return owner
}
