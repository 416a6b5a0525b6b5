package attest

import (
	"context"
	"fmt"
	"strings"

	"github.com/foundry-rs/foundryup/internal/config"
	"github.com/foundry-rs/foundryup/internal/platform"
)

// notFoundMarker appears in bodies served for missing release assets.
const notFoundMarker = "Not Found"

// StringFetcher downloads small text resources.
type StringFetcher interface {
	FetchToString(ctx context.Context, url string) (string, error)
}

// Fetcher locates and downloads release attestations.
type Fetcher struct {
	http   StringFetcher
	logger config.Logger
}

// NewFetcher creates a fetcher.
func NewFetcher(http StringFetcher, logger config.Logger) *Fetcher {
	return &Fetcher{http: http, logger: config.LoggerOrNop(logger)}
}

// PointerURL returns the release asset that links to the attestation:
// "<releaseBaseURL><prefix>_<version>_<platform>_<arch>.attestation.txt".
func PointerURL(releaseBaseURL, prefix, version string, target platform.Target) string {
	return fmt.Sprintf("%s%s_%s_%s.attestation.txt", releaseBaseURL, prefix, version, target)
}

// ArtifactURL turns the link found in the pointer file into the URL that
// serves the JSON artifact.
func ArtifactURL(link string) string {
	link = strings.TrimRight(link, "/")
	if strings.HasSuffix(link, "/download") || strings.HasSuffix(link, ".json") {
		return link
	}
	return link + "/download"
}

// Fetch returns the attestation bundle for a release, or nil when the
// release publishes none.
//
// A failed pointer lookup, an empty pointer file or one containing a
// not-found marker all mean "no attestation" and are not errors. Once a
// pointer names an artifact, failing to download or parse it is an error.
func (f *Fetcher) Fetch(ctx context.Context, releaseBaseURL, prefix, version string, target platform.Target) (Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	pointerURL := PointerURL(releaseBaseURL, prefix, version, target)
	body, err := f.http.FetchToString(ctx, pointerURL)
	if err != nil {
		f.logger.Debug("attestation pointer unavailable", "url", pointerURL, "error", err)
		return nil, nil
	}

	link := firstLine(body)
	if link == "" || strings.Contains(body, notFoundMarker) {
		f.logger.Debug("release publishes no attestation", "url", pointerURL)
		return nil, nil
	}

	artifactURL := ArtifactURL(link)
	f.logger.Debug("fetching attestation artifact", "url", artifactURL)
	artifact, err := f.http.FetchToString(ctx, artifactURL)
	if err != nil {
		return nil, err
	}

	return ParseArtifact([]byte(artifact))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
