// Package testutil provides utilities for testing foundryup in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points foundryup at a fresh root directory and returns it.
// This ensures tests never touch:
// - the user's installed toolchains
// - a real settings file
// - GitHub credentials from the developer's shell
//
// The directory is removed by t.TempDir.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), ".foundry")
	t.Setenv("FOUNDRY_DIR", root)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
	t.Setenv("FOUNDRYUP_DEBUG", "")
	t.Setenv("NO_COLOR", "1")

	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("failed to create test root %s: %v", root, err)
	}
	return root
}

// WriteExecutable writes a shell script named name into dir with mode 0755.
func WriteExecutable(t *testing.T, dir, name, script string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	if err := os.Chmod(path, 0o755); err != nil {
		t.Fatalf("failed to chmod %s: %v", path, err)
	}
	return path
}
