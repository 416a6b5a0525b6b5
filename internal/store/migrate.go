package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/foundry-rs/foundryup/internal/apperr"
	"github.com/foundry-rs/foundryup/internal/config"
)

// Migrate moves version directories from the legacy flat layout,
// versions/<tag>/<bin>, to versions/<owner>/<repo>/<tag> under the primary
// network's repository. Directories that hold no primary binary directly,
// such as owner directories of the current layout, are left alone. It
// returns the migrated tags.
func (s *Store) Migrate() ([]string, error) {
	layout := s.env.Layout
	entries, err := os.ReadDir(layout.Versions)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Filesystem("read directory", layout.Versions, err)
	}

	primary := config.Primary()
	var migrated []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		legacy := filepath.Join(layout.Versions, e.Name())
		if !s.holdsBinaries(legacy, primary.Bins) {
			continue
		}

		dest := layout.VersionDir(primary.Repo, e.Name())
		if _, err := os.Stat(dest); err == nil {
			s.logger.Warn("legacy version already migrated, leaving in place", "path", legacy, "dest", dest)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return migrated, apperr.Filesystem("create directory", filepath.Dir(dest), err)
		}
		if err := os.Rename(legacy, dest); err != nil {
			return migrated, apperr.Filesystem("migrate version", legacy, err)
		}
		s.logger.Debug("migrated legacy version", "from", legacy, "to", dest)
		migrated = append(migrated, e.Name())
	}
	return migrated, nil
}

func (s *Store) holdsBinaries(dir string, bins []string) bool {
	for _, bin := range bins {
		info, err := os.Stat(filepath.Join(dir, s.env.Target.ExeName(bin)))
		if err == nil && info.Mode().IsRegular() {
			return true
		}
	}
	return false
}
