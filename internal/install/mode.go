package install

import (
	"fmt"
	"strings"

	"github.com/foundry-rs/foundryup/internal/config"
)

// DefaultBranch is built when a source build names no branch or PR.
const DefaultBranch = "master"

// Request is one install invocation as given on the command line.
type Request struct {
	Network string // network name, informational; the Env carries the profile
	Version string
	Branch  string
	PR      uint64
	Commit  string
	Repo    string // "owner/repo" override
	Path    string // local checkout to build
	Jobs    uint
	Force   bool

	Platform string
	Arch     string
}

// wantsBuild reports whether a branch, PR or commit was requested.
func (r Request) wantsBuild() bool {
	return r.Branch != "" || r.PR != 0 || r.Commit != ""
}

// Mode is the install strategy chosen once per request. It is one of
// LocalBuild, Prebuilt, AlternatePrebuilt or SourceBuild.
type Mode interface {
	fmt.Stringer
	mode()
}

// LocalBuild builds an existing checkout and links its binaries.
type LocalBuild struct {
	Path string
}

// Prebuilt installs a release of the primary network.
type Prebuilt struct {
	Network config.Network
}

// AlternatePrebuilt installs a release of a non-primary network.
type AlternatePrebuilt struct {
	Network config.Network
}

// RefKind names what a source build checks out.
type RefKind int

const (
	RefBranch RefKind = iota
	RefPR
	RefCommit
)

// SourceBuild clones Repo, checks out Ref (and Commit, when set) and builds
// it with cargo.
type SourceBuild struct {
	Repo   string
	Ref    string // branch name or refs/pull/<n>/head
	Kind   RefKind
	Branch string
	PR     uint64
	Commit string
}

func (LocalBuild) mode()        {}
func (Prebuilt) mode()          {}
func (AlternatePrebuilt) mode() {}
func (SourceBuild) mode()       {}

func (m LocalBuild) String() string { return "local build of " + m.Path }
func (m Prebuilt) String() string   { return "prebuilt " + m.Network.Repo }
func (m AlternatePrebuilt) String() string {
	return "prebuilt " + m.Network.Repo + " (" + m.Network.Name + ")"
}
func (m SourceBuild) String() string { return "source build of " + m.Repo + "@" + m.Ref }

// Classify picks the install mode for req against network. Rules are
// evaluated in order:
//
//  1. a local path means LocalBuild;
//  2. no branch, PR or commit, and the repository is the network's own:
//     Prebuilt for the primary network, AlternatePrebuilt otherwise;
//  3. anything else is a SourceBuild.
//
// A repository override equal to the network's repository is not an
// override. A differing one always forces a source build, whichever
// network is selected.
func Classify(req Request, network config.Network) Mode {
	if req.Path != "" {
		return LocalBuild{Path: req.Path}
	}

	repo := req.Repo
	if repo == "" {
		repo = network.Repo
	}
	ownRepo := strings.EqualFold(repo, network.Repo)

	if !req.wantsBuild() && ownRepo {
		if network.IsPrimary() {
			return Prebuilt{Network: network}
		}
		return AlternatePrebuilt{Network: network}
	}

	sb := SourceBuild{Repo: repo, Branch: req.Branch, PR: req.PR, Commit: req.Commit}
	switch {
	case req.PR != 0:
		sb.Ref = fmt.Sprintf("refs/pull/%d/head", req.PR)
		sb.Kind = RefPR
	case req.Branch != "":
		sb.Ref = req.Branch
		sb.Kind = RefBranch
	default:
		sb.Ref = DefaultBranch
		sb.Kind = RefBranch
	}
	if req.Commit != "" {
		sb.Kind = RefCommit
	}
	return sb
}

// Label returns the synthetic version a source build is installed under:
// <owner>-commit-<c>, <owner>-pr-<n> or <owner>-branch-<branch>, with
// slashes in the branch replaced by dashes.
func (m SourceBuild) Label() string {
	author := config.RepoOwner(m.Repo)
	switch m.Kind {
	case RefCommit:
		return fmt.Sprintf("%s-commit-%s", author, m.Commit)
	case RefPR:
		return fmt.Sprintf("%s-pr-%d", author, m.PR)
	default:
		return fmt.Sprintf("%s-branch-%s", author, strings.ReplaceAll(m.Ref, "/", "-"))
	}
}

// NormalizeTag maps a requested version to its release tag: anything
// starting with "nightly" becomes "nightly", a version starting with a digit
// gains a "v" prefix, and everything else is kept as is.
func NormalizeTag(version string) string {
	switch {
	case strings.HasPrefix(version, "nightly"):
		return "nightly"
	case version != "" && version[0] >= '0' && version[0] <= '9':
		return "v" + version
	default:
		return version
	}
}
