package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/foundry-rs/foundryup/internal/apperr"
	"github.com/foundry-rs/foundryup/internal/config"
	"github.com/foundry-rs/foundryup/internal/platform"
	"github.com/foundry-rs/foundryup/internal/ui"
)

// FileFetcher downloads a URL to a file.
type FileFetcher interface {
	FetchToFile(ctx context.Context, url, destPath string) error
}

// Config holds the updater's collaborators.
type Config struct {
	Checker UpdateChecker
	HTTP    FileFetcher
	Target  platform.Target

	// Current is the running version, used in status messages.
	Current string
	// Executable is the file to replace. Defaults to the running executable.
	Executable string
	// DownloadBase defaults to DefaultDownloadBase.
	DownloadBase string
	// Replacer defaults to ReplacerFor(Target.Platform).
	Replacer Replacer
	Output   *ui.Printer
	Logger   config.Logger
}

// Updater replaces the running foundryup with the latest release.
type Updater struct {
	checker      UpdateChecker
	http         FileFetcher
	target       platform.Target
	current      string
	executable   string
	downloadBase string
	replacer     Replacer
	out          *ui.Printer
	logger       config.Logger
}

// Outcome describes what Run did.
type Outcome struct {
	Updated bool
	From    string
	To      string
}

// NewUpdater validates cfg and fills in defaults.
func NewUpdater(cfg Config) (*Updater, error) {
	if cfg.Checker == nil {
		return nil, errors.New("update checker is required")
	}
	if cfg.HTTP == nil {
		return nil, errors.New("downloader is required")
	}

	u := &Updater{
		checker:      cfg.Checker,
		http:         cfg.HTTP,
		target:       cfg.Target,
		current:      cfg.Current,
		executable:   cfg.Executable,
		downloadBase: strings.TrimRight(cfg.DownloadBase, "/"),
		replacer:     cfg.Replacer,
		out:          cfg.Output,
		logger:       config.LoggerOrNop(cfg.Logger),
	}
	if u.downloadBase == "" {
		u.downloadBase = DefaultDownloadBase
	}
	if u.replacer == nil {
		u.replacer = ReplacerFor(cfg.Target.Platform)
	}
	if u.out == nil {
		u.out = ui.Discard()
	}
	return u, nil
}

// ArtifactName returns the release asset name for target.
func ArtifactName(target platform.Target) string {
	return "foundryup_" + target.String()
}

// ArtifactURL returns the download location of version's asset for target.
func ArtifactURL(base, version string, target platform.Target) string {
	return fmt.Sprintf("%s/%s/releases/download/v%s/%s",
		strings.TrimRight(base, "/"), Repo, strings.TrimPrefix(version, "v"), ArtifactName(target))
}

// Run checks for a newer release and, when one exists, downloads it and
// swaps it in for the running executable.
func (u *Updater) Run(ctx context.Context) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("context cancelled: %w", err)
	}

	u.out.Say("updating foundryup...")

	latest, ok, err := u.checker.CheckForUpdate(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("check for update: %w", err)
	}
	if !ok {
		u.out.Say("foundryup is already up to date (installed: %s)", u.current)
		return Outcome{From: u.current, To: u.current}, nil
	}

	exe, err := u.executablePath()
	if err != nil {
		return Outcome{}, err
	}

	tmpDir, err := os.MkdirTemp("", "foundryup-update-*")
	if err != nil {
		return Outcome{}, apperr.Filesystem("create temp directory", os.TempDir(), err)
	}
	defer os.RemoveAll(tmpDir)

	newPath := filepath.Join(tmpDir, "foundryup_new")
	url := ArtifactURL(u.downloadBase, latest, u.target)
	u.logger.Debug("downloading foundryup", "url", url, "version", latest)
	if err := u.http.FetchToFile(ctx, url, newPath); err != nil {
		return Outcome{}, err
	}

	if u.target.Capabilities().PosixModes {
		if err := os.Chmod(newPath, 0755); err != nil {
			return Outcome{}, apperr.Filesystem("set permissions", newPath, err)
		}
	}

	if err := u.replacer.Replace(newPath, exe); err != nil {
		return Outcome{}, err
	}

	u.out.Say("successfully updated foundryup: %s → %s", u.current, latest)
	return Outcome{Updated: true, From: u.current, To: latest}, nil
}

func (u *Updater) executablePath() (string, error) {
	if u.executable != "" {
		return u.executable, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", apperr.Filesystem("locate executable", "foundryup", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}
