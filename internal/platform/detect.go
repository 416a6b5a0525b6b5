package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector for the running host.
type RealDetector struct {
	goos   string
	goarch string

	// platformInfo returns the distro id and family (gopsutil on Linux).
	platformInfo func(ctx context.Context) (platform, family, version string, err error)
	// translated reports whether the process runs under Rosetta.
	translated func() bool
}

// NewDetector creates a detector for the running host.
func NewDetector() Detector {
	return &RealDetector{
		goos:         runtime.GOOS,
		goarch:       runtime.GOARCH,
		platformInfo: host.PlatformInformationWithContext,
		translated:   rosettaTranslated,
	}
}

// Detect maps GOOS/GOARCH onto a release Target.
//
// On Linux, gopsutil distro detection distinguishes musl-based Alpine. If it
// fails the host is treated as glibc Linux. On macOS an amd64 process that is
// running under Rosetta reports Arm64 so the native build is installed.
func (d *RealDetector) Detect(ctx context.Context) (Target, error) {
	if err := ctx.Err(); err != nil {
		return Target{}, fmt.Errorf("context cancelled: %w", err)
	}

	p, err := ParsePlatform(d.goos)
	if err != nil {
		return Target{}, fmt.Errorf("platform detection failed: %w", err)
	}
	a, err := ParseArch(d.goarch)
	if err != nil {
		return Target{}, fmt.Errorf("platform detection failed: %w", err)
	}

	if p == Linux && d.platformInfo != nil {
		id, family, _, err := d.platformInfo(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Target{}, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
			}
			// Fall back to glibc Linux
		} else if isAlpine(id, family) {
			p = Alpine
		}
	}

	if p == Darwin && a == Amd64 && d.translated != nil && d.translated() {
		a = Arm64
	}

	return Target{Platform: p, Arch: a}, nil
}

// ResolveTarget applies explicit overrides on top of host detection.
// Detection is skipped entirely when both overrides are given.
func ResolveTarget(ctx context.Context, detector Detector, platformOverride, archOverride string) (Target, error) {
	var target Target

	if platformOverride == "" || archOverride == "" {
		detected, err := detector.Detect(ctx)
		if err != nil {
			return Target{}, err
		}
		target = detected
	}

	if platformOverride != "" {
		p, err := ParsePlatform(platformOverride)
		if err != nil {
			return Target{}, err
		}
		target.Platform = p
	}
	if archOverride != "" {
		a, err := ParseArch(archOverride)
		if err != nil {
			return Target{}, err
		}
		target.Arch = a
	}

	return target, nil
}
