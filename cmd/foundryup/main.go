// Command foundryup installs, switches between and updates the Foundry
// toolchain.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/foundry-rs/foundryup/internal/ui"
)

// Version will be set at build time via -ldflags
var Version = "1.5.0"

func main() {
	a := &app{
		stderr:      os.Stderr,
		getenv:      os.Getenv,
		color:       ui.ColorEnabled(os.Stderr),
		interactive: ui.ColorEnabled(os.Stderr),
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
