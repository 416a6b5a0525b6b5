package platform

import (
	"fmt"
	"strings"
)

// ParsePlatform converts a user-supplied or GOOS platform name.
// Any "mingw*" spelling is treated as win32.
func ParsePlatform(s string) (Platform, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case "linux":
		return Linux, nil
	case "alpine":
		return Alpine, nil
	case "darwin", "macos", "mac":
		return Darwin, nil
	case "win32", "windows":
		return Win32, nil
	}
	if strings.HasPrefix(normalized, "mingw") {
		return Win32, nil
	}
	return 0, fmt.Errorf("unsupported platform: %s (supported: linux, alpine, darwin, win32)", s)
}

// ParseArch converts a user-supplied or GOARCH architecture name.
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "amd64", "x86_64", "x64":
		return Amd64, nil
	case "arm64", "aarch64":
		return Arm64, nil
	default:
		return 0, fmt.Errorf("unsupported architecture: %s (supported: amd64, arm64)", s)
	}
}

// isAlpine reports whether gopsutil's platform or family identify Alpine.
func isAlpine(platformID, family string) bool {
	return strings.EqualFold(strings.TrimSpace(platformID), "alpine") ||
		strings.EqualFold(strings.TrimSpace(family), "alpine")
}
