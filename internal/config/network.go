package config

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Built-in network names.
const (
	NetworkFoundry = "foundry"
	NetworkTempo   = "tempo"
)

// Network describes one release source. Values are never mutated after
// construction; Bins is copied on every accessor that hands it out.
type Network struct {
	Name           string
	Repo           string   // "owner/repo"
	Bins           []string // binary names, in activation order
	ArchivePrefix  string
	DefaultVersion string
	DisplayName    string
	HasAttestation bool
}

// Primary is the upstream foundry network.
func Primary() Network {
	return Network{
		Name:           NetworkFoundry,
		Repo:           "foundry-rs/foundry",
		Bins:           []string{"forge", "cast", "anvil", "chisel"},
		ArchivePrefix:  "foundry",
		DefaultVersion: "stable",
		DisplayName:    "foundry",
		HasAttestation: true,
	}
}

// Tempo is the tempo fork of foundry.
func Tempo() Network {
	return Network{
		Name:           NetworkTempo,
		Repo:           "tempoxyz/tempo-foundry",
		Bins:           []string{"forge", "cast"},
		ArchivePrefix:  "foundry",
		DefaultVersion: "nightly",
		DisplayName:    "tempo-foundry",
		HasAttestation: false,
	}
}

// IsPrimary reports whether n is the upstream network.
func (n Network) IsPrimary() bool {
	return n.Name == NetworkFoundry
}

// BinNames returns a copy of the binary names.
func (n Network) BinNames() []string {
	return slices.Clone(n.Bins)
}

// Validate checks that a network definition is usable.
func (n Network) Validate() error {
	if n.Name == "" {
		return fmt.Errorf("network name cannot be empty")
	}
	owner, name, ok := strings.Cut(n.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("network %s: repo must be owner/repo, got %q", n.Name, n.Repo)
	}
	if len(n.Bins) == 0 {
		return fmt.Errorf("network %s: bins cannot be empty", n.Name)
	}
	for _, bin := range n.Bins {
		if bin == "" || strings.ContainsAny(bin, `/\`) {
			return fmt.Errorf("network %s: invalid binary name %q", n.Name, bin)
		}
	}
	if n.ArchivePrefix == "" {
		return fmt.Errorf("network %s: archive prefix cannot be empty", n.Name)
	}
	if n.DefaultVersion == "" {
		return fmt.Errorf("network %s: default version cannot be empty", n.Name)
	}
	return nil
}

// Registry holds the networks that can be selected by name.
type Registry struct {
	networks map[string]Network
}

// NewRegistry returns a registry with the built-in networks plus extra.
// Extra networks may not redefine a built-in.
func NewRegistry(extra ...Network) (*Registry, error) {
	r := &Registry{networks: map[string]Network{
		NetworkFoundry: Primary(),
		NetworkTempo:   Tempo(),
	}}

	for _, n := range extra {
		if err := n.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(n.Name)
		if _, exists := r.networks[key]; exists {
			return nil, fmt.Errorf("network %s is already defined", n.Name)
		}
		n.Bins = slices.Clone(n.Bins)
		r.networks[key] = n
	}

	return r, nil
}

// Lookup returns the network called name.
func (r *Registry) Lookup(name string) (Network, error) {
	n, ok := r.networks[strings.ToLower(name)]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return n, nil
}

// ForRepo returns the network publishing repo ("owner/repo"). When several
// networks share a repo the first by name wins.
func (r *Registry) ForRepo(repo string) (Network, bool) {
	for _, name := range r.Names() {
		if n := r.networks[name]; strings.EqualFold(n.Repo, repo) {
			return n, true
		}
	}
	return Network{}, false
}

// Names returns the sorted network names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
