// Package config resolves the immutable run context foundryup threads
// through every component: the on-disk layout, the selected release network
// and the optional user settings file.
//
// # Layout
//
// All state lives under a single root directory:
//
//	<root>/versions/<owner>/<repo>/<tag>/<bin>[.exe]   installed versions
//	<root>/bin/<bin>[.exe]                              active binaries
//	<root>/share/man/man1/                              manpages
//
// The root is $FOUNDRY_DIR when set, otherwise $XDG_CONFIG_HOME/.foundry,
// otherwise ~/.foundry.
//
// # Settings
//
// <root>/settings.lua is evaluated in a sandboxed gopher-lua VM with a
// read-only platform table, so a settings file can vary by target:
//
//	foundryup = {
//	  network = "foundry",
//	  jobs = platform.when(platform.is_macos, 8),
//	  networks = {
//	    { name = "myfork", repo = "me/foundry", bins = { "forge", "cast" } },
//	  },
//	}
//
// Settings only supply defaults. Explicit command-line selections win.
package config
