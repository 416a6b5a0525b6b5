// Package platform describes the release targets foundryup installs for.
//
// A Target pairs a Platform with an Arch. Everything that differs between
// targets (archive format, executable suffix, whether POSIX mode bits are
// meaningful) is looked up from a capability table so the same install
// logic runs, and is testable, on any host.
package platform

import (
	"context"
	"fmt"
)

// Platform is a release platform as it appears in archive names.
type Platform int

const (
	Linux Platform = iota
	Alpine
	Darwin
	Win32
)

func (p Platform) String() string {
	switch p {
	case Linux:
		return "linux"
	case Alpine:
		return "alpine"
	case Darwin:
		return "darwin"
	case Win32:
		return "win32"
	default:
		return fmt.Sprintf("platform(%d)", int(p))
	}
}

// Arch is a release CPU architecture.
type Arch int

const (
	Amd64 Arch = iota
	Arm64
)

func (a Arch) String() string {
	switch a {
	case Amd64:
		return "amd64"
	case Arm64:
		return "arm64"
	default:
		return fmt.Sprintf("arch(%d)", int(a))
	}
}

// ArchiveFormat selects the extraction strategy for a release archive.
type ArchiveFormat int

const (
	TarGz ArchiveFormat = iota
	Zip
)

// Ext returns the file extension used in release archive names.
func (f ArchiveFormat) Ext() string {
	if f == Zip {
		return "zip"
	}
	return "tar.gz"
}

func (f ArchiveFormat) String() string {
	return f.Ext()
}

// Capabilities describes how artifacts for a platform are packaged and
// installed.
type Capabilities struct {
	Format     ArchiveFormat
	ExeSuffix  string
	PosixModes bool // chmod is meaningful and executables need 0755
	Symlinks   bool // local builds may be linked instead of copied
}

var capabilities = map[Platform]Capabilities{
	Linux:  {Format: TarGz, PosixModes: true, Symlinks: true},
	Alpine: {Format: TarGz, PosixModes: true, Symlinks: true},
	Darwin: {Format: TarGz, PosixModes: true, Symlinks: true},
	Win32:  {Format: Zip, ExeSuffix: ".exe"},
}

// Capabilities returns the capability entry for p.
func (p Platform) Capabilities() Capabilities {
	return capabilities[p]
}

// Target is the platform/arch pair an install is performed for.
type Target struct {
	Platform Platform
	Arch     Arch
}

func (t Target) String() string {
	return t.Platform.String() + "_" + t.Arch.String()
}

// Capabilities returns the capability entry for the target's platform.
func (t Target) Capabilities() Capabilities {
	return t.Platform.Capabilities()
}

// ExeName returns the on-disk file name of the executable called name.
func (t Target) ExeName(name string) string {
	return name + t.Capabilities().ExeSuffix
}

// ArchiveName returns "<prefix>_<version>_<platform>_<arch>.<ext>".
func (t Target) ArchiveName(prefix, version string) string {
	return fmt.Sprintf("%s_%s_%s.%s", prefix, version, t, t.Capabilities().Format.Ext())
}

// Detector is the interface for host target detection.
type Detector interface {
	Detect(ctx context.Context) (Target, error)
}
