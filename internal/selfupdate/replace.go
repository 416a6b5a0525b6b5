package selfupdate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	update "github.com/inconshreveable/go-update"

	"github.com/foundry-rs/foundryup/internal/apperr"
	"github.com/foundry-rs/foundryup/internal/platform"
)

// Replacer swaps the executable at target for the file at newPath while
// target may be running.
type Replacer interface {
	Replace(newPath, target string) error
}

// AtomicRename renames the new file over the running executable. POSIX
// systems keep the old inode alive for the running process.
type AtomicRename struct{}

// Replace renames newPath over target. When the two are on different
// filesystems the file is first copied next to target.
func (AtomicRename) Replace(newPath, target string) error {
	if err := os.Chmod(newPath, 0755); err != nil {
		return apperr.Filesystem("set permissions", newPath, err)
	}
	if err := os.Rename(newPath, target); err == nil {
		return nil
	}

	staged := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".new")
	if err := copyExecutable(newPath, staged); err != nil {
		_ = os.Remove(staged)
		return apperr.Filesystem("stage executable", staged, err)
	}
	if err := os.Rename(staged, target); err != nil {
		_ = os.Remove(staged)
		return apperr.Filesystem("replace executable", target, err)
	}
	return nil
}

// RenameAside moves the running executable to a backup path and puts the
// new one in its place, for systems that refuse to overwrite a running
// executable.
type RenameAside struct{}

// BackupPath returns where RenameAside keeps the previous executable:
// foundryup.exe becomes foundryup.old.exe.
func BackupPath(target string) string {
	return strings.TrimSuffix(target, ".exe") + ".old.exe"
}

// Replace installs newPath at target, keeping the previous executable at
// BackupPath(target).
func (RenameAside) Replace(newPath, target string) error {
	f, err := os.Open(newPath)
	if err != nil {
		return apperr.Filesystem("open new executable", newPath, err)
	}
	defer f.Close()

	err = update.Apply(f, update.Options{
		TargetPath:  target,
		TargetMode:  0755,
		OldSavePath: BackupPath(target),
	})
	if err != nil {
		if rerr := update.RollbackError(err); rerr != nil {
			return apperr.Filesystem("replace executable", target,
				fmt.Errorf("%w (rollback failed: %v)", err, rerr))
		}
		return apperr.Filesystem("replace executable", target, err)
	}
	return nil
}

// ReplacerFor selects the replacement strategy for p.
func ReplacerFor(p platform.Platform) Replacer {
	if p == platform.Win32 {
		return RenameAside{}
	}
	return AtomicRename{}
}

func copyExecutable(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
