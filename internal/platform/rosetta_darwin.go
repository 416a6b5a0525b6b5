//go:build darwin

package platform

import "golang.org/x/sys/unix"

// rosettaTranslated reports whether this process is translated by Rosetta 2.
// The sysctl is absent on Intel Macs, which is reported as not translated.
func rosettaTranslated() bool {
	v, err := unix.SysctlUint32("sysctl.proc_translated")
	return err == nil && v == 1
}
