// Package git provides an interface-based wrapper for the Git operations
// a source build needs: clone, fetch a ref, and check out a commit.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/foundry-rs/foundryup/internal/apperr"
)

// RemoteName is the remote every clone fetches from.
const RemoteName = "origin"

// Git is the interface for source-checkout operations.
// Every failure is an apperr.ErrBuild.
type Git interface {
	Clone(ctx context.Context, url, dir string) error
	Fetch(ctx context.Context, dir, ref string) (plumbing.Hash, error)
	Checkout(ctx context.Context, dir string, hash plumbing.Hash) error
	CheckoutRevision(ctx context.Context, dir, rev string) (plumbing.Hash, error)
}

// Client implements the Git interface with go-git.
type Client struct {
	progress io.Writer // sideband progress, may be nil
}

// NewClient creates a Git client. Remote progress messages are written to
// progress when it is non-nil.
func NewClient(progress io.Writer) *Client {
	return &Client{progress: progress}
}

// Clone clones url into dir.
func (c *Client) Clone(ctx context.Context, url, dir string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	_, err := gogit.PlainCloneContext(ctx, dir, false, &gogit.CloneOptions{
		URL:        url,
		RemoteName: RemoteName,
		Progress:   c.progress,
	})
	if err != nil {
		return apperr.Build("clone", url, err)
	}
	return nil
}

// RefSpec returns the fetch refspec for ref and the local reference it
// updates. Branch names map to refs/remotes/origin/<branch>; full refs such
// as refs/pull/7/head map to refs/remotes/origin/pull/7/head.
func RefSpec(ref string) (config.RefSpec, plumbing.ReferenceName) {
	src := ref
	if !strings.HasPrefix(ref, "refs/") {
		src = "refs/heads/" + ref
	}
	short := strings.TrimPrefix(strings.TrimPrefix(src, "refs/heads/"), "refs/")
	dst := plumbing.ReferenceName("refs/remotes/" + RemoteName + "/" + short)
	return config.RefSpec("+" + src + ":" + dst.String()), dst
}

// Fetch fetches ref from origin into the clone at dir and returns the
// commit it points to.
func (c *Client) Fetch(ctx context.Context, dir, ref string) (plumbing.Hash, error) {
	if err := ctx.Err(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return plumbing.ZeroHash, apperr.Build("open repository", dir, err)
	}

	refspec, local := RefSpec(ref)
	err = repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: RemoteName,
		RefSpecs:   []config.RefSpec{refspec},
		Progress:   c.progress,
		Force:      true,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return plumbing.ZeroHash, apperr.Build("fetch", ref, err)
	}

	resolved, err := repo.Reference(local, true)
	if err != nil {
		return plumbing.ZeroHash, apperr.Build("resolve fetched ref", ref, err)
	}
	return resolved.Hash(), nil
}

// Checkout force-checks out hash as a detached HEAD.
func (c *Client) Checkout(ctx context.Context, dir string, hash plumbing.Hash) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return apperr.Build("open repository", dir, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return apperr.Build("get worktree", dir, err)
	}
	if err := worktree.Checkout(&gogit.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return apperr.Build("checkout", hash.String(), err)
	}
	return nil
}

// CheckoutRevision resolves rev (a full or abbreviated commit hash, or any
// revision go-git understands) and checks it out.
func (c *Client) CheckoutRevision(ctx context.Context, dir, rev string) (plumbing.Hash, error) {
	if err := ctx.Err(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return plumbing.ZeroHash, apperr.Build("open repository", dir, err)
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, apperr.Build("resolve revision", rev, err)
	}
	if err := c.Checkout(ctx, dir, *hash); err != nil {
		return plumbing.ZeroHash, err
	}
	return *hash, nil
}
