package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/foundry-rs/foundryup/internal/apperr"
	"github.com/foundry-rs/foundryup/internal/platform"
)

// Environment variables consulted while resolving the root directory.
const (
	EnvFoundryDir    = "FOUNDRY_DIR"
	EnvXDGConfigHome = "XDG_CONFIG_HOME"
)

// Env is the immutable context threaded through every component call.
type Env struct {
	Layout   *Layout
	Network  Network
	Networks *Registry
	Target   platform.Target
	Settings *Settings
}

// Bins returns the selected network's binary names.
func (e *Env) Bins() []string {
	return e.Network.BinNames()
}

// BinsFor returns the binary names shipped by repo. The selected network
// wins, then any registered network publishing repo. Other repositories are
// treated as forks of the primary network.
func (e *Env) BinsFor(repo string) []string {
	if strings.EqualFold(e.Network.Repo, repo) {
		return e.Bins()
	}
	networks := e.Networks
	if networks == nil {
		networks, _ = NewRegistry()
	}
	if n, ok := networks.ForRepo(repo); ok {
		return n.BinNames()
	}
	return Primary().BinNames()
}

// ResolveOptions controls Resolve. Zero values fall back to the process
// environment and the primary network.
type ResolveOptions struct {
	Root    string // explicit root directory
	Network string // explicit network name
	Target  platform.Target

	Getenv  func(string) string
	HomeDir func() (string, error)
}

// Resolve builds the run context.
//
// The root directory is the explicit override, else $FOUNDRY_DIR, else
// $XDG_CONFIG_HOME/.foundry, else <home>/.foundry. The network is the
// explicit selection, else the settings file default, else the primary
// network.
func Resolve(ctx context.Context, opts ResolveOptions) (*Env, error) {
	root, err := resolveRoot(opts)
	if err != nil {
		return nil, err
	}
	layout := NewLayout(root)

	settings, err := NewParser(opts.Target).ParseFile(ctx, layout.SettingsPath())
	if err != nil {
		return nil, apperr.Config("load settings "+layout.SettingsPath(), err)
	}

	registry, err := NewRegistry(settings.Networks...)
	if err != nil {
		return nil, apperr.Config("load settings "+layout.SettingsPath(), err)
	}

	name := opts.Network
	if name == "" {
		name = settings.Network
	}
	if name == "" {
		name = NetworkFoundry
	}
	network, err := registry.Lookup(name)
	if err != nil {
		return nil, apperr.Config("select network", err)
	}

	return &Env{
		Layout:   layout,
		Network:  network,
		Networks: registry,
		Target:   opts.Target,
		Settings: settings,
	}, nil
}

func resolveRoot(opts ResolveOptions) (string, error) {
	if opts.Root != "" {
		return filepath.Clean(opts.Root), nil
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if dir := getenv(EnvFoundryDir); dir != "" {
		return filepath.Clean(dir), nil
	}
	if dir := getenv(EnvXDGConfigHome); dir != "" {
		return filepath.Join(dir, ".foundry"), nil
	}

	homeDir := opts.HomeDir
	if homeDir == nil {
		homeDir = os.UserHomeDir
	}
	home, err := homeDir()
	if err != nil || home == "" {
		if err == nil {
			err = errors.New("home directory is empty")
		}
		return "", apperr.Config("resolve root directory", err)
	}
	return filepath.Join(home, ".foundry"), nil
}
