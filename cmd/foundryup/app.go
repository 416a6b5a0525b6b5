package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/foundry-rs/foundryup/internal/build"
	"github.com/foundry-rs/foundryup/internal/config"
	"github.com/foundry-rs/foundryup/internal/git"
	"github.com/foundry-rs/foundryup/internal/install"
	"github.com/foundry-rs/foundryup/internal/platform"
	"github.com/foundry-rs/foundryup/internal/process"
	"github.com/foundry-rs/foundryup/internal/selfupdate"
	"github.com/foundry-rs/foundryup/internal/store"
	"github.com/foundry-rs/foundryup/internal/transport"
	"github.com/foundry-rs/foundryup/internal/ui"
)

// EnvDebug enables debug logging when set.
const EnvDebug = "FOUNDRYUP_DEBUG"

// app carries the process-level dependencies. Zero-valued hooks fall back
// to the real host.
type app struct {
	stderr      io.Writer
	getenv      func(string) string
	color       bool
	interactive bool

	detector platform.Detector
	guard    install.Guard
	checker  selfupdate.UpdateChecker
	host     string // release and clone host
	selfExe  string // executable replaced by update
}

// session is everything one invocation needs once the environment is known.
type session struct {
	out    *ui.Printer
	logger *slog.Logger
	http   *transport.Downloader
	env    *config.Env
	store  *store.Store
	guard  install.Guard
	update selfupdate.UpdateChecker
}

func (a *app) newLogger() *slog.Logger {
	level := slog.LevelWarn
	if a.getenv(EnvDebug) != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}

func (a *app) open(ctx context.Context, opts *options) (*session, error) {
	logger := a.newLogger()
	out := ui.NewPrinter(a.stderr, a.color)

	http := transport.NewDownloader(
		transport.WithGitHubToken(transport.TokenFromEnv()),
		transport.WithUserAgent("foundryup/"+Version),
		transport.WithReporter(ui.NewProgress(a.stderr, a.interactive)),
	)

	detector := a.detector
	if detector == nil {
		detector = platform.NewDetector()
	}
	target, err := platform.ResolveTarget(ctx, detector, opts.platform, opts.arch)
	if err != nil {
		return nil, fmt.Errorf("resolve target: %w", err)
	}
	logger.Debug("resolved target", "target", target.String())

	env, err := config.Resolve(ctx, config.ResolveOptions{
		Network: opts.network,
		Target:  target,
		Getenv:  a.getenv,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved environment", "root", env.Layout.Root, "network", env.Network.Name)

	st := store.New(env, out, store.WithLogger(logger))
	moved, err := st.Migrate()
	if err != nil {
		return nil, err
	}
	for _, dir := range moved {
		logger.Debug("migrated legacy version directory", "dir", dir)
	}

	guard := a.guard
	if guard == nil {
		guard = process.NewGuard()
	}
	checker := a.checker
	if checker == nil {
		checker = selfupdate.NewChecker(http, Version, selfupdate.WithCheckerLogger(logger))
	}

	return &session{
		out:    out,
		logger: logger,
		http:   http,
		env:    env,
		store:  st,
		guard:  guard,
		update: checker,
	}, nil
}

func (a *app) orchestrator(s *session) (*install.Orchestrator, error) {
	return install.New(install.Config{
		Env:     s.env,
		HTTP:    s.http,
		Store:   s.store,
		Git:     git.NewClient(a.stderr),
		Builder: build.NewCargo(build.WithOutput(a.stderr, a.stderr)),
		Guard:   s.guard,
		Output:  s.out,
		Logger:  s.logger,
		Host:    a.host,
	})
}

// withUpdateCheck runs fn while checking for a newer foundryup in the
// background. The check is reported after fn succeeds and abandoned if it
// fails.
func (a *app) withUpdateCheck(ctx context.Context, s *session, fn func() error) error {
	task := selfupdate.Start(ctx, s.update)
	if err := fn(); err != nil {
		task.Stop()
		return err
	}
	task.Report(s.out, Version)
	return nil
}

func (a *app) runInstall(ctx context.Context, opts *options) error {
	s, err := a.open(ctx, opts)
	if err != nil {
		return err
	}
	orch, err := a.orchestrator(s)
	if err != nil {
		return err
	}
	return a.withUpdateCheck(ctx, s, func() error {
		_, err := orch.Run(ctx, opts.request())
		return err
	})
}

func (a *app) runUse(ctx context.Context, opts *options, version string) error {
	s, err := a.open(ctx, opts)
	if err != nil {
		return err
	}
	orch, err := a.orchestrator(s)
	if err != nil {
		return err
	}
	return a.withUpdateCheck(ctx, s, func() error {
		return orch.Use(ctx, version)
	})
}

func (a *app) runList(ctx context.Context, opts *options) error {
	s, err := a.open(ctx, opts)
	if err != nil {
		return err
	}
	return a.withUpdateCheck(ctx, s, func() error {
		versions, err := s.store.List(ctx)
		if err != nil {
			return err
		}
		for _, v := range versions {
			if label := v.Label(); label != "" {
				s.out.Say("%s", label)
			}
			for _, b := range v.Binaries {
				s.out.Say("- %s", b.Version)
			}
			fmt.Fprintln(s.out.Writer())
		}
		return nil
	})
}

func (a *app) runUpdate(ctx context.Context, opts *options) error {
	s, err := a.open(ctx, opts)
	if err != nil {
		return err
	}
	if err := s.guard.Check(ctx, s.env.Bins()); err != nil {
		return err
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Checker:      s.update,
		HTTP:         s.http,
		Target:       s.env.Target,
		Current:      Version,
		Executable:   a.selfExe,
		DownloadBase: a.host,
		Output:       s.out,
		Logger:       s.logger,
	})
	if err != nil {
		return err
	}
	_, err = updater.Run(ctx)
	return err
}
