// Package process detects running instances of managed binaries, which
// must not be replaced while they execute.
package process

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/foundry-rs/foundryup/internal/apperr"
)

// Info is the subset of a process the guard inspects.
type Info struct {
	PID  int32
	Name string
}

// Lister enumerates running processes.
type Lister func(ctx context.Context) ([]Info, error)

// Guard checks process names against managed binaries.
type Guard struct {
	list Lister
	self int32
}

// NewGuard returns a guard backed by the host process table.
func NewGuard() *Guard {
	return NewGuardWithLister(SystemProcesses)
}

// NewGuardWithLister returns a guard backed by list.
func NewGuardWithLister(list Lister) *Guard {
	return &Guard{list: list, self: int32(os.Getpid())}
}

// SystemProcesses lists host processes through gopsutil. Processes whose
// name cannot be read (exited, or owned by another user) are skipped.
func SystemProcesses(ctx context.Context) ([]Info, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	infos := make([]Info, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		infos = append(infos, Info{PID: p.Pid, Name: name})
	}
	return infos, nil
}

// InUse reports the name of the first running process that is one of bins.
func (g *Guard) InUse(ctx context.Context, bins []string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, fmt.Errorf("context cancelled: %w", err)
	}

	procs, err := g.list(ctx)
	if err != nil {
		return "", false, err
	}
	for _, bin := range bins {
		for _, p := range procs {
			if p.PID == g.self {
				continue
			}
			if matches(p.Name, bin) {
				return p.Name, true, nil
			}
		}
	}
	return "", false, nil
}

// Check fails with apperr.ErrFilesystem when one of bins is running.
func (g *Guard) Check(ctx context.Context, bins []string) error {
	name, running, err := g.InUse(ctx, bins)
	if err != nil {
		return err
	}
	if running {
		return apperr.Filesystem("replace binary", name,
			fmt.Errorf("'%s' is currently running, please stop the process and try again", name))
	}
	return nil
}

func matches(name, bin string) bool {
	name = strings.TrimSuffix(name, ".exe")
	return name == bin || strings.HasSuffix(name, "/"+bin)
}
