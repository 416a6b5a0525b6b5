// Package selfupdate checks for and installs new releases of foundryup
// itself.
package selfupdate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/foundry-rs/foundryup/internal/config"
)

const (
	// Repo is the repository foundryup itself is released from.
	Repo = "foundry-rs/foundryup"

	DefaultAPIBase      = "https://api.github.com"
	DefaultDownloadBase = "https://github.com"
)

// StringFetcher downloads small text resources.
type StringFetcher interface {
	FetchToString(ctx context.Context, url string) (string, error)
}

// UpdateChecker reports whether a newer release exists.
type UpdateChecker interface {
	CheckForUpdate(ctx context.Context) (string, bool, error)
}

// Checker compares the latest published release with the running build.
type Checker struct {
	http    StringFetcher
	apiBase string
	repo    string
	current string
	logger  config.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithAPIBase overrides the GitHub API base URL.
func WithAPIBase(base string) CheckerOption {
	return func(c *Checker) { c.apiBase = strings.TrimRight(base, "/") }
}

// WithCheckerLogger sets the debug logger.
func WithCheckerLogger(l config.Logger) CheckerOption {
	return func(c *Checker) { c.logger = config.LoggerOrNop(l) }
}

// NewChecker creates a checker for the running version current.
func NewChecker(http StringFetcher, current string, opts ...CheckerOption) *Checker {
	c := &Checker{
		http:    http,
		apiBase: DefaultAPIBase,
		repo:    Repo,
		current: current,
		logger:  config.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type latestRelease struct {
	TagName string `json:"tag_name"`
}

// CheckForUpdate returns the latest release version, without a leading
// "v", when it is strictly newer than the running build.
//
// A latest tag that is not a semantic version means no update. So does a
// running build without a semantic version, such as a development build.
func (c *Checker) CheckForUpdate(ctx context.Context) (string, bool, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiBase, c.repo)
	body, err := c.http.FetchToString(ctx, url)
	if err != nil {
		return "", false, err
	}

	var release latestRelease
	if err := json.Unmarshal([]byte(body), &release); err != nil {
		return "", false, fmt.Errorf("parse release metadata: %w", err)
	}
	if release.TagName == "" {
		return "", false, errors.New("parse release metadata: missing tag_name")
	}

	remote := strings.TrimPrefix(release.TagName, "v")
	if !semver.IsValid("v" + remote) {
		c.logger.Debug("latest release tag is not a semantic version", "tag", release.TagName)
		return "", false, nil
	}
	current := "v" + strings.TrimPrefix(c.current, "v")
	if !semver.IsValid(current) {
		c.logger.Debug("running build has no semantic version", "version", c.current)
		return "", false, nil
	}

	if semver.Compare("v"+remote, current) > 0 {
		return remote, true, nil
	}
	return "", false, nil
}
