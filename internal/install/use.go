package install

import (
	"context"
	"fmt"
	"strings"

	"github.com/foundry-rs/foundryup/internal/apperr"
)

// Use activates an installed version of the selected network.
//
// version is a version directory name ("v1.5.0", "nightly",
// "me-branch-feat-x") or a release version that normalizes to one. A
// directory installed from another repository is addressed as
// "<owner>/<repo>/<tag>".
func (o *Orchestrator) Use(ctx context.Context, version string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	if o.guard != nil {
		if err := o.guard.Check(ctx, o.env.Bins()); err != nil {
			return err
		}
	}

	repo, tag := o.env.Network.Repo, version
	if parts := strings.Split(version, "/"); len(parts) == 3 {
		repo, tag = parts[0]+"/"+parts[1], parts[2]
	}

	for _, candidate := range []string{tag, NormalizeTag(tag)} {
		if candidate != "" && o.store.Exists(repo, candidate) {
			o.logger.Debug("activating installed version", "repo", repo, "tag", candidate)
			return o.store.Activate(ctx, repo, candidate)
		}
	}
	return apperr.NotInstalled(version)
}
