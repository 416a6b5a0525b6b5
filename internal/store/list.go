package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/foundry-rs/foundryup/internal/config"
)

// UnknownVersion is reported for binaries whose version probe failed.
const UnknownVersion = "(unknown version)"

// BinaryVersion is one binary's self-reported version.
type BinaryVersion struct {
	Name    string
	Path    string
	Version string // probe output, or "<name> (unknown version)"
}

// InstalledVersion is one version directory, or the bin directory itself
// when no version store exists (Repo and Tag empty).
type InstalledVersion struct {
	Repo     string
	Tag      string
	Dir      string
	Binaries []BinaryVersion
}

// Label returns "owner/repo tag", or the tag alone for the primary repo.
func (v InstalledVersion) Label() string {
	if v.Repo == "" || v.Repo == config.Primary().Repo {
		return v.Tag
	}
	return v.Repo + " " + v.Tag
}

// List reports every installed version with each present binary's
// self-reported version, sorted by repository then tag. When the versions
// directory does not exist it reports the active binaries instead.
func (s *Store) List(ctx context.Context) ([]InstalledVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	layout := s.env.Layout
	if _, err := os.Stat(layout.Versions); errors.Is(err, fs.ErrNotExist) {
		// the bin directory may hold binaries of any network
		active := InstalledVersion{Dir: layout.Bin, Binaries: s.probeDir(ctx, layout.Bin, config.Primary().BinNames())}
		if len(active.Binaries) == 0 {
			return nil, nil
		}
		return []InstalledVersion{active}, nil
	}

	owners, err := readDirs(layout.Versions)
	if err != nil {
		return nil, err
	}

	var versions []InstalledVersion
	for _, owner := range owners {
		repos, err := readDirs(filepath.Join(layout.Versions, owner))
		if err != nil {
			return nil, err
		}
		for _, repo := range repos {
			repoID := owner + "/" + repo
			tags, err := readDirs(layout.RepoVersionsDir(repoID))
			if err != nil {
				return nil, err
			}
			for _, tag := range tags {
				dir := layout.VersionDir(repoID, tag)
				versions = append(versions, InstalledVersion{
					Repo:     repoID,
					Tag:      tag,
					Dir:      dir,
					Binaries: s.probeDir(ctx, dir, s.env.BinsFor(repoID)),
				})
			}
		}
	}
	return versions, nil
}

func (s *Store) probeDir(ctx context.Context, dir string, names []string) []BinaryVersion {
	var bins []BinaryVersion
	for _, bin := range names {
		path := filepath.Join(dir, s.env.Target.ExeName(bin))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		version, err := s.probe(ctx, path)
		if err != nil || version == "" {
			s.logger.Debug("version probe failed", "path", path, "error", err)
			version = bin + " " + UnknownVersion
		}
		bins = append(bins, BinaryVersion{Name: bin, Path: path, Version: version})
	}
	return bins
}

// readDirs returns the sorted names of the subdirectories of dir.
func readDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
