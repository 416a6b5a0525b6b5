package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/foundry-rs/foundryup/internal/apperr"
	"github.com/foundry-rs/foundryup/internal/attest"
	"github.com/foundry-rs/foundryup/internal/config"
	"github.com/foundry-rs/foundryup/internal/transport"
)

func (o *Orchestrator) runPrebuilt(ctx context.Context, mode Mode, network config.Network, req Request) (*Result, error) {
	version := req.Version
	if version == "" {
		version = network.DefaultVersion
	}
	tag := NormalizeTag(version)
	repo := network.Repo
	target := o.env.Target
	bins := o.env.Bins()
	result := &Result{Mode: mode, Repo: repo, Tag: tag}

	o.out.Say("installing %s (version %s, tag %s)", network.DisplayName, version, tag)

	releaseURL := ReleaseURL(o.host, repo, tag)
	versionDir := o.env.Layout.VersionDir(repo, tag)

	var bundle attest.Bundle
	switch {
	case req.Force:
		o.out.Say("skipped SHA verification due to --force flag")
	case !network.HasAttestation:
		o.out.Say("%s does not publish attestations, skipping SHA verification", network.DisplayName)
	default:
		o.out.Say("checking if %s for %s version are already installed", strings.Join(bins, ", "), tag)
		b, err := o.attest.Fetch(ctx, releaseURL, network.ArchivePrefix, tag, target)
		if err != nil {
			return nil, err
		}
		if b == nil {
			o.out.Say("no attestation found for this release, skipping SHA verification")
			break
		}
		bundle = b

		if bundle.Matches(versionDir, bins, target) {
			o.out.Say("version %s already installed and verified, activating...", tag)
			if err := o.store.Activate(ctx, repo, tag); err != nil {
				return nil, err
			}
			o.out.Say("done!")
			result.CacheHit = true
			result.Verified = true
			return result, nil
		}

		o.out.Say("binaries not found or do not match expected hashes, downloading new binaries")
		// Leftovers from an earlier failed verification are never reused
		if o.store.Exists(repo, tag) {
			o.logger.Debug("purging unverified version directory", "path", versionDir)
			if err := o.store.Purge(repo, tag); err != nil {
				return nil, err
			}
		}
	}

	if err := o.downloadAndExtract(ctx, releaseURL, network.ArchivePrefix, tag, versionDir); err != nil {
		return nil, err
	}

	if bundle != nil {
		o.out.Say("verifying downloaded binaries against the attestation file")
		report := bundle.Verify(versionDir, bins, target)
		for _, res := range report {
			if res.Status == attest.StatusOK {
				o.out.Say("%s verified ✓", res.Binary)
			} else {
				o.out.Say("%s", res.Error())
			}
		}
		if err := report.Err(); err != nil {
			return nil, err
		}
		result.Verified = true
	}

	o.downloadManpages(ctx, releaseURL, network.ArchivePrefix, tag)

	if err := o.store.Activate(ctx, repo, tag); err != nil {
		return nil, err
	}
	o.out.Say("done!")
	return result, nil
}

// downloadAndExtract fetches the release archive into a temporary
// directory and unpacks it into versionDir.
func (o *Orchestrator) downloadAndExtract(ctx context.Context, releaseURL, prefix, tag, versionDir string) error {
	target := o.env.Target
	archiveName := target.ArchiveName(prefix, tag)

	tmpDir, err := os.MkdirTemp("", "foundryup-")
	if err != nil {
		return apperr.Filesystem("create temp directory", os.TempDir(), err)
	}
	defer os.RemoveAll(tmpDir)

	o.out.Say("downloading %s", archiveName)
	archivePath := filepath.Join(tmpDir, archiveName)
	if err := o.http.FetchToFile(ctx, releaseURL+archiveName, archivePath); err != nil {
		return err
	}

	caps := target.Capabilities()
	if err := transport.Extract(archivePath, versionDir, caps); err != nil {
		return fmt.Errorf("extract %s: %w", archiveName, err)
	}
	if caps.PosixModes {
		if err := transport.MarkTopLevelExecutable(versionDir); err != nil {
			return err
		}
	}
	return nil
}

// downloadManpages installs the release manpages. Failures only warn.
func (o *Orchestrator) downloadManpages(ctx context.Context, releaseURL, prefix, tag string) {
	o.out.Say("downloading manpages")

	tmpDir, err := os.MkdirTemp("", "foundryup-man-")
	if err != nil {
		o.out.Warn("skipping manpage download: failed to create temp directory")
		return
	}
	defer os.RemoveAll(tmpDir)

	archiveName := fmt.Sprintf("%s_man_%s.tar.gz", prefix, tag)
	archivePath := filepath.Join(tmpDir, archiveName)
	if err := o.http.FetchToFile(ctx, releaseURL+archiveName, archivePath); err != nil {
		o.logger.Debug("manpage download failed", "error", err)
		o.out.Warn("skipping manpage download: unavailable or invalid archive")
		return
	}

	if err := transport.ExtractTarGz(archivePath, o.env.Layout.Man, o.env.Target.Capabilities().PosixModes); err != nil {
		o.out.Warn("skipping manpage download: %v", err)
	}
}
