package selfupdate

import (
	"context"
	"fmt"
	"sync"

	"github.com/foundry-rs/foundryup/internal/ui"
)

// Task is a background update check. It runs alongside the main
// operation and is joined once at the end of the run.
type Task struct {
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once

	version string
	newer   bool
	err     error
}

// Start launches checker in its own goroutine.
func Start(ctx context.Context, checker UpdateChecker) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(t.done)
		t.version, t.newer, t.err = checker.CheckForUpdate(ctx)
	}()
	return t
}

// Wait blocks until the check finishes and returns its result. Later
// calls return the same result.
func (t *Task) Wait() (string, bool, error) {
	t.once.Do(func() {
		<-t.done
		t.cancel()
	})
	return t.version, t.newer, t.err
}

// Stop cancels a check that is still in flight and waits for it.
func (t *Task) Stop() {
	t.cancel()
	_, _, _ = t.Wait()
}

const outOfDate = `
Your installation of foundryup is out of date.

Installed: %s → Latest: %s

To update, run:

  foundryup --update

Updating is highly recommended as it gives you access to the latest features and bug fixes.
`

// Report prints the result of the check. A failed check is a warning only.
func (t *Task) Report(out *ui.Printer, current string) {
	latest, newer, err := t.Wait()
	switch {
	case err != nil:
		out.Warn("Could not check for updates: %v", err)
	case newer:
		fmt.Fprintf(out.Writer(), outOfDate, current, latest)
	default:
		out.Say("foundryup is up to date.")
	}
}
