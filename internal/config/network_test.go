package config

import (
	"reflect"
	"testing"
)

func TestBuiltinNetworks(t *testing.T) {
	primary := Primary()
	if !reflect.DeepEqual(primary.Bins, []string{"forge", "cast", "anvil", "chisel"}) {
		t.Errorf("primary bins = %v", primary.Bins)
	}
	if !primary.HasAttestation || primary.DefaultVersion != "stable" {
		t.Errorf("primary = %+v", primary)
	}

	tempo := Tempo()
	if tempo.HasAttestation {
		t.Error("tempo should not declare attestation")
	}
	if tempo.DefaultVersion != "nightly" || tempo.DisplayName != "tempo-foundry" {
		t.Errorf("tempo = %+v", tempo)
	}

	for _, n := range []Network{primary, tempo} {
		if err := n.Validate(); err != nil {
			t.Errorf("%s.Validate() error = %v", n.Name, err)
		}
	}
}

func TestNetworkBinNamesIsCopy(t *testing.T) {
	n := Primary()
	bins := n.BinNames()
	bins[0] = "mutated"

	if n.Bins[0] != "forge" {
		t.Error("BinNames() must not alias the network's slice")
	}
}

func TestNetworkValidate(t *testing.T) {
	valid := Network{Name: "x", Repo: "a/b", Bins: []string{"forge"}, ArchivePrefix: "foundry", DefaultVersion: "nightly"}

	tests := []struct {
		name    string
		mutate  func(n *Network)
		wantErr bool
	}{
		{"valid", func(n *Network) {}, false},
		{"empty_name", func(n *Network) { n.Name = "" }, true},
		{"repo_without_owner", func(n *Network) { n.Repo = "foundry" }, true},
		{"repo_too_deep", func(n *Network) { n.Repo = "a/b/c" }, true},
		{"no_bins", func(n *Network) { n.Bins = nil }, true},
		{"bin_with_separator", func(n *Network) { n.Bins = []string{"../forge"} }, true},
		{"no_prefix", func(n *Network) { n.ArchivePrefix = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := valid
			n.Bins = append([]string(nil), valid.Bins...)
			tt.mutate(&n)
			if err := n.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	extra := Network{Name: "MyFork", Repo: "me/foundry", Bins: []string{"forge"}, ArchivePrefix: "foundry", DefaultVersion: "nightly"}

	r, err := NewRegistry(extra)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if !reflect.DeepEqual(r.Names(), []string{"foundry", "myfork", "tempo"}) {
		t.Errorf("Names() = %v", r.Names())
	}

	n, err := r.Lookup("myfork")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if n.Repo != "me/foundry" {
		t.Errorf("Repo = %q", n.Repo)
	}

	if _, err := r.Lookup("missing"); err == nil {
		t.Error("expected error for unknown network")
	}

	if _, err := NewRegistry(Network{Name: "tempo", Repo: "a/b", Bins: []string{"x"}, ArchivePrefix: "p", DefaultVersion: "v"}); err == nil {
		t.Error("expected error when redefining a built-in network")
	}
}

func TestRegistryForRepo(t *testing.T) {
	r, err := NewRegistry(Network{Name: "myfork", Repo: "me/foundry", Bins: []string{"forge"}, ArchivePrefix: "foundry", DefaultVersion: "nightly"})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		repo     string
		wantName string
		wantOK   bool
	}{
		{repo: "foundry-rs/foundry", wantName: NetworkFoundry, wantOK: true},
		{repo: "TempoXYZ/Tempo-Foundry", wantName: NetworkTempo, wantOK: true},
		{repo: "me/foundry", wantName: "myfork", wantOK: true},
		{repo: "someone/else", wantOK: false},
	}
	for _, tt := range tests {
		n, ok := r.ForRepo(tt.repo)
		if ok != tt.wantOK || n.Name != tt.wantName {
			t.Errorf("ForRepo(%q) = %q, %v, want %q, %v", tt.repo, n.Name, ok, tt.wantName, tt.wantOK)
		}
	}
}

func TestEnvBinsFor(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	primaryBins := Primary().BinNames()
	tempoBins := Tempo().BinNames()

	tests := []struct {
		name string
		env  *Env
		repo string
		want []string
	}{
		{name: "selected_network", env: &Env{Network: Tempo(), Networks: registry}, repo: "tempoxyz/tempo-foundry", want: tempoBins},
		{name: "other_known_network", env: &Env{Network: Tempo(), Networks: registry}, repo: "foundry-rs/foundry", want: primaryBins},
		{name: "unknown_repo_is_a_fork", env: &Env{Network: Tempo(), Networks: registry}, repo: "me/foundry", want: primaryBins},
		{name: "no_registry", env: &Env{Network: Primary()}, repo: "tempoxyz/tempo-foundry", want: tempoBins},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.env.BinsFor(tt.repo); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BinsFor(%q) = %v, want %v", tt.repo, got, tt.want)
			}
		})
	}
}
