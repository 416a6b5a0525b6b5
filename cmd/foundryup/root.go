package main

import (
	"github.com/spf13/cobra"

	"github.com/foundry-rs/foundryup/internal/install"
)

// options holds the parsed command line.
type options struct {
	version  string
	branch   string
	pr       uint64
	commit   string
	repo     string
	path     string
	jobs     uint
	force    bool
	network  string
	arch     string
	platform string

	list   bool
	use    string
	update bool
}

func (o *options) request() install.Request {
	return install.Request{
		Network: o.network,
		Version: o.version,
		Branch:  o.branch,
		PR:      o.pr,
		Commit:  o.commit,
		Repo:    o.repo,
		Path:    o.path,
		Jobs:    o.jobs,
		Force:   o.force,
	}
}

func newRootCmd(a *app) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "foundryup",
		Short:         "Install, update and switch between Foundry toolchain versions",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case opts.update:
				return a.runUpdate(cmd.Context(), opts)
			case opts.list:
				return a.runList(cmd.Context(), opts)
			case opts.use != "":
				return a.runUse(cmd.Context(), opts, opts.use)
			default:
				return a.runInstall(cmd.Context(), opts)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.version, "install", "i", "", "Install a specific version from built binaries")
	flags.StringVarP(&opts.branch, "branch", "b", "", "Build and install a specific branch")
	flags.Uint64VarP(&opts.pr, "pr", "P", 0, "Build and install a specific pull request")
	flags.StringVarP(&opts.commit, "commit", "C", "", "Build and install a specific commit")
	flags.StringVarP(&opts.repo, "repo", "r", "", "Build and install from a remote GitHub repo (uses default branch if no other options are set)")
	flags.StringVarP(&opts.path, "path", "p", "", "Build and install a local repository")
	flags.UintVarP(&opts.jobs, "jobs", "j", 0, "Number of CPUs to use for building (default: all)")
	flags.BoolVarP(&opts.force, "force", "f", false, "Skip SHA verification for downloaded binaries (INSECURE)")
	flags.StringVarP(&opts.network, "network", "n", "", "Install binaries for a specific network")
	flags.StringVar(&opts.arch, "arch", "", "Install a specific architecture (amd64, arm64)")
	flags.StringVar(&opts.platform, "platform", "", "Install a specific platform (linux, alpine, darwin, win32)")
	root.MarkFlagsMutuallyExclusive("pr", "branch")

	root.Flags().BoolVarP(&opts.list, "list", "l", false, "List installed versions")
	root.Flags().StringVarP(&opts.use, "use", "u", "", "Use a specific installed version")
	root.Flags().BoolVarP(&opts.update, "update", "U", false, "Update foundryup to the latest version")
	root.MarkFlagsMutuallyExclusive("list", "use", "update")

	root.AddCommand(
		&cobra.Command{
			Use:     "install",
			Aliases: []string{"i"},
			Short:   "Install a version (the default action)",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runInstall(cmd.Context(), opts)
			},
		},
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List installed versions",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runList(cmd.Context(), opts)
			},
		},
		&cobra.Command{
			Use:   "use <version>",
			Short: "Activate an installed version",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runUse(cmd.Context(), opts, args[0])
			},
		},
		&cobra.Command{
			Use:   "update",
			Short: "Update foundryup itself",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runUpdate(cmd.Context(), opts)
			},
		},
	)

	return root
}
