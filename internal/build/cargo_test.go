package build

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/foundry-rs/foundryup/internal/apperr"
)

func TestArgs(t *testing.T) {
	tests := []struct {
		name string
		jobs uint
		want []string
	}{
		{name: "default_parallelism", jobs: 0, want: []string{"build", "--bins", "--release"}},
		{name: "explicit_jobs", jobs: 4, want: []string{"build", "--bins", "--release", "--jobs", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Args(tt.jobs); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Args(%d) = %v, want %v", tt.jobs, got, tt.want)
			}
		})
	}
}

func TestArtifactDir(t *testing.T) {
	got := ArtifactDir(filepath.Join("src", "foundry"))
	want := filepath.Join("src", "foundry", "target", "release")
	if got != want {
		t.Errorf("ArtifactDir() = %q, want %q", got, want)
	}
}

// fakeCargo writes a shell script standing in for cargo.
func fakeCargo(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake cargo is a shell script")
	}
	path := filepath.Join(t.TempDir(), "cargo")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCargo_Build(t *testing.T) {
	bin := fakeCargo(t, `echo "$@" > args.txt
mkdir -p target/release
echo compiled > target/release/forge
echo "Finished release"
`)
	dir := t.TempDir()

	var stdout bytes.Buffer
	c := NewCargo(WithBinary(bin), WithOutput(&stdout, &stdout))
	if err := c.Build(context.Background(), dir, 2); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	args, _ := os.ReadFile(filepath.Join(dir, "args.txt"))
	if got := strings.TrimSpace(string(args)); got != "build --bins --release --jobs 2" {
		t.Errorf("cargo args = %q", got)
	}
	if _, err := os.Stat(filepath.Join(ArtifactDir(dir), "forge")); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
	if !strings.Contains(stdout.String(), "Finished release") {
		t.Errorf("output not streamed: %q", stdout.String())
	}
}

func TestCargo_BuildFailure(t *testing.T) {
	bin := fakeCargo(t, "echo 'error[E0425]' >&2\nexit 101\n")

	err := NewCargo(WithBinary(bin)).Build(context.Background(), t.TempDir(), 0)
	if !errors.Is(err, apperr.ErrBuild) {
		t.Errorf("Build() error = %v, want ErrBuild", err)
	}
}

func TestCargo_MissingToolchain(t *testing.T) {
	c := NewCargo(WithBinary(filepath.Join(t.TempDir(), "no-cargo")))
	err := c.Build(context.Background(), t.TempDir(), 0)
	if !errors.Is(err, apperr.ErrBuild) {
		t.Errorf("Build() error = %v, want ErrBuild", err)
	}
}
