package install

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/foundry-rs/foundryup/internal/apperr"
	"github.com/foundry-rs/foundryup/internal/build"
)

func (o *Orchestrator) runSource(ctx context.Context, m SourceBuild, req Request) (*Result, error) {
	repoDir := o.env.Layout.RepoDir(m.Repo)

	if _, err := os.Stat(repoDir); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(repoDir), 0755); err != nil {
			return nil, apperr.Filesystem("create directory", filepath.Dir(repoDir), err)
		}
		o.out.Say("cloning %s...", m.Repo)
		if err := o.git.Clone(ctx, o.host+"/"+m.Repo, repoDir); err != nil {
			return nil, err
		}
	}

	o.out.Say("fetching %s...", m.Ref)
	head, err := o.git.Fetch(ctx, repoDir, m.Ref)
	if err != nil {
		return nil, err
	}
	if err := o.git.Checkout(ctx, repoDir, head); err != nil {
		return nil, err
	}
	if m.Commit != "" {
		if _, err := o.git.CheckoutRevision(ctx, repoDir, m.Commit); err != nil {
			return nil, err
		}
	}

	label := m.Label()
	o.out.Say("installing version %s", label)

	if err := o.builder.Build(ctx, repoDir, o.jobs(req)); err != nil {
		return nil, err
	}

	versionDir := o.env.Layout.VersionDir(m.Repo, label)
	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return nil, apperr.Filesystem("create directory", versionDir, err)
	}

	artifacts := build.ArtifactDir(repoDir)
	target := o.env.Target
	for _, bin := range o.env.Bins() {
		name := target.ExeName(bin)
		src := filepath.Join(artifacts, name)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dest := filepath.Join(versionDir, name)
		if err := os.Rename(src, dest); err != nil {
			return nil, apperr.Filesystem("move binary", src, err)
		}
	}

	if err := o.store.Activate(ctx, m.Repo, label); err != nil {
		return nil, err
	}
	o.out.Say("done")
	return &Result{Mode: m, Repo: m.Repo, Tag: label}, nil
}

func (o *Orchestrator) runLocal(ctx context.Context, m LocalBuild, req Request) (*Result, error) {
	if req.Repo != "" || req.Branch != "" || req.Version != "" {
		o.out.Warn("--branch, --install, --use, and --repo arguments are ignored during local install")
	}

	o.out.Say("installing from %s", m.Path)
	if err := o.builder.Build(ctx, m.Path, o.jobs(req)); err != nil {
		return nil, err
	}
	if err := o.store.Link(ctx, build.ArtifactDir(m.Path)); err != nil {
		return nil, err
	}
	o.out.Say("done")
	return &Result{Mode: m}, nil
}
