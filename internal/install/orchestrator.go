// Package install drives an install request from mode selection through
// download or build to activation.
package install

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foundry-rs/foundryup/internal/attest"
	"github.com/foundry-rs/foundryup/internal/build"
	"github.com/foundry-rs/foundryup/internal/config"
	"github.com/foundry-rs/foundryup/internal/git"
	"github.com/foundry-rs/foundryup/internal/store"
	"github.com/foundry-rs/foundryup/internal/transport"
	"github.com/foundry-rs/foundryup/internal/ui"
)

// DefaultHost serves releases and source repositories.
const DefaultHost = "https://github.com"

// Downloader fetches release assets.
type Downloader interface {
	FetchToFile(ctx context.Context, url, destPath string) error
	FetchToString(ctx context.Context, url string) (string, error)
}

// Guard refuses to proceed while a managed binary is running.
type Guard interface {
	Check(ctx context.Context, bins []string) error
}

// Config holds the collaborators of an Orchestrator. Env is required;
// every other field has a default.
type Config struct {
	Env     *config.Env
	HTTP    Downloader
	Store   *store.Store
	Git     git.Git
	Builder build.Builder
	Guard   Guard // nil skips the running-binary check
	Output  *ui.Printer
	Logger  config.Logger

	// Host is the base URL for release downloads and clones.
	Host string
}

// Orchestrator runs install requests against one Env.
type Orchestrator struct {
	env     *config.Env
	http    Downloader
	attest  *attest.Fetcher
	store   *store.Store
	git     git.Git
	builder build.Builder
	guard   Guard
	out     *ui.Printer
	logger  config.Logger
	host    string
}

// Result describes a completed install.
type Result struct {
	Mode     Mode
	Repo     string
	Tag      string // version directory name, or empty for a local build
	CacheHit bool   // the verified version was already present
	Verified bool   // binaries were checked against an attestation
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Env == nil {
		return nil, fmt.Errorf("env is required")
	}

	o := &Orchestrator{
		env:     cfg.Env,
		http:    cfg.HTTP,
		store:   cfg.Store,
		git:     cfg.Git,
		builder: cfg.Builder,
		guard:   cfg.Guard,
		out:     cfg.Output,
		logger:  config.LoggerOrNop(cfg.Logger),
		host:    strings.TrimRight(cfg.Host, "/"),
	}
	if o.out == nil {
		o.out = ui.Discard()
	}
	if o.http == nil {
		o.http = transport.NewDownloader()
	}
	if o.store == nil {
		o.store = store.New(cfg.Env, o.out, store.WithLogger(o.logger))
	}
	if o.git == nil {
		o.git = git.NewClient(nil)
	}
	if o.builder == nil {
		o.builder = build.NewCargo()
	}
	if o.host == "" {
		o.host = DefaultHost
	}
	o.attest = attest.NewFetcher(o.http, o.logger)
	return o, nil
}

// ReleaseURL returns the download base for a release, with trailing slash.
func ReleaseURL(host, repo, tag string) string {
	return fmt.Sprintf("%s/%s/releases/download/%s/", strings.TrimRight(host, "/"), repo, tag)
}

// Run classifies req and performs the install. Every successful path ends
// with the requested binaries active in the bin directory.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	if err := o.env.Layout.EnsureDirectories(); err != nil {
		return nil, err
	}
	if o.guard != nil {
		if err := o.guard.Check(ctx, o.env.Bins()); err != nil {
			return nil, err
		}
	}

	mode := Classify(req, o.env.Network)
	o.logger.Debug("install mode selected", "mode", mode.String())

	switch m := mode.(type) {
	case LocalBuild:
		return o.runLocal(ctx, m, req)
	case Prebuilt:
		return o.runPrebuilt(ctx, m, m.Network, req)
	case AlternatePrebuilt:
		return o.runPrebuilt(ctx, m, m.Network, req)
	case SourceBuild:
		return o.runSource(ctx, m, req)
	default:
		return nil, errors.New("unknown install mode")
	}
}

// jobs returns the requested build parallelism, falling back to settings.
func (o *Orchestrator) jobs(req Request) uint {
	if req.Jobs > 0 {
		return req.Jobs
	}
	if o.env.Settings != nil {
		return o.env.Settings.Jobs
	}
	return 0
}
