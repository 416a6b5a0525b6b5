package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/foundry-rs/foundryup/internal/apperr"
)

// ComputeDigest returns the lowercase hex SHA-256 of the file at path.
// The file is streamed through the hasher, never loaded whole.
func ComputeDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperr.Filesystem("open file", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.CopyBuffer(hasher, f, make([]byte, ChunkSize)); err != nil {
		return "", apperr.Filesystem("read file", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
