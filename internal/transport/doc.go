// Package transport moves release artifacts from the network onto disk.
//
// # Components
//
//   - Downloader: streaming HTTP GET with progress reporting. Bodies are
//     copied in bounded chunks to a ".tmp" sibling and renamed into place,
//     so memory use does not depend on artifact size.
//   - Extract: tar.gz and zip unpacking with path traversal protection.
//   - ComputeDigest: streaming SHA-256 of a file.
//
// Every HTTP failure, whether a transport error or a non-2xx status, is
// reported as an apperr.ErrNetwork carrying the URL. Nothing is retried.
package transport
