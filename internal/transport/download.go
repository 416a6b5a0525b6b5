package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/foundry-rs/foundryup/internal/apperr"
)

const (
	// DefaultTimeout bounds a whole request, body included
	DefaultTimeout = 10 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "foundryup"
	// ChunkSize is the copy buffer size used when streaming bodies to disk
	ChunkSize = 32 * 1024
	// MaxStringBody caps responses read fully into memory
	MaxStringBody = 32 << 20
)

// Reporter receives download progress. Reporting is a side effect only.
type Reporter interface {
	// Start is called once per download. total is -1 when the length is unknown.
	Start(name string, total int64)
	// Advance is called after every chunk written to disk.
	Advance(n int64)
	// Finish is called once the body has been fully read or the download failed.
	Finish()
}

type nopReporter struct{}

func (nopReporter) Start(string, int64) {}
func (nopReporter) Advance(int64)       {}
func (nopReporter) Finish()             {}

// Downloader performs HTTP downloads.
type Downloader struct {
	client    *http.Client
	userAgent string
	token     string
	reporter  Reporter
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(d *Downloader) { d.client = c }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(d *Downloader) { d.userAgent = ua }
}

// WithReporter installs a progress reporter for FetchToFile.
func WithReporter(r Reporter) Option {
	return func(d *Downloader) {
		if r != nil {
			d.reporter = r
		}
	}
}

// WithGitHubToken sends token as a bearer credential to GitHub hosts only.
func WithGitHubToken(token string) Option {
	return func(d *Downloader) { d.token = token }
}

// NewDownloader creates a downloader.
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Release assets redirect to object storage
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		reporter:  nopReporter{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// TokenFromEnv returns a GitHub token from GITHUB_TOKEN or GH_TOKEN.
func TokenFromEnv() string {
	for _, key := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// get issues a GET and returns the response only for a 2xx status.
func (d *Downloader) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Network(url, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", d.userAgent)
	if d.token != "" && isGitHubHost(req.URL.Hostname()) {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, apperr.Network(url, fmt.Errorf("execute request: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, apperr.Network(url, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}
	return resp, nil
}

func isGitHubHost(host string) bool {
	return host == "github.com" || host == "api.github.com"
}

// FetchToFile streams url into destPath.
//
// The body is written to destPath+".tmp" in ChunkSize pieces and renamed
// into place once complete, so destPath never holds a partial download.
func (d *Downloader) FetchToFile(ctx context.Context, url, destPath string) error {
	resp, err := d.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return apperr.Filesystem("create directory", filepath.Dir(destPath), err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return apperr.Filesystem("create file", tmpPath, err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	d.reporter.Start(filepath.Base(destPath), resp.ContentLength)
	defer d.reporter.Finish()

	if err := d.copyBody(tmpFile, resp.Body, url, tmpPath); err != nil {
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return apperr.Filesystem("close file", tmpPath, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return apperr.Filesystem("rename file", destPath, err)
	}

	cleanupNeeded = false
	return nil
}

// FetchToString returns the body of url. Bodies over MaxStringBody are an error.
func (d *Downloader) FetchToString(ctx context.Context, url string) (string, error) {
	resp, err := d.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxStringBody+1))
	if err != nil {
		return "", apperr.Network(url, fmt.Errorf("read response body: %w", err))
	}
	if len(body) > MaxStringBody {
		return "", apperr.Network(url, fmt.Errorf("response body exceeds %d bytes", MaxStringBody))
	}
	return string(body), nil
}

// copyBody streams body into dst. A failed write to dst is a filesystem
// error on path; a failed read of body is a network error on url.
func (d *Downloader) copyBody(dst io.Writer, body io.Reader, url, path string) error {
	fw := &failWriter{w: dst}
	// MultiWriter hides ReadFrom, so CopyBuffer really uses the bounded buffer
	w := io.MultiWriter(fw, progressWriter{d.reporter})
	if _, err := io.CopyBuffer(w, body, make([]byte, ChunkSize)); err != nil {
		if fw.err != nil {
			return apperr.Filesystem("write file", path, fw.err)
		}
		return apperr.Network(url, fmt.Errorf("copy response body: %w", err))
	}
	return nil
}

// failWriter remembers the first error returned by w.
type failWriter struct {
	w   io.Writer
	err error
}

func (f *failWriter) Write(b []byte) (int, error) {
	n, err := f.w.Write(b)
	if err != nil && f.err == nil {
		f.err = err
	}
	return n, err
}

type progressWriter struct {
	r Reporter
}

func (p progressWriter) Write(b []byte) (int, error) {
	p.r.Advance(int64(len(b)))
	return len(b), nil
}
