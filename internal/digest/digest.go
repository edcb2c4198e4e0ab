// Package digest computes deterministic content hashes for uploaded
// log files by streaming their bytes through SHA-256.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrSourceUnavailable indicates the source bytes could not be fully
// read; no hash is emitted and the pipeline must not persist anything.
var ErrSourceUnavailable = errors.New("digest: source unavailable")

// Compute streams the reader through SHA-256 and returns the digest as
// 64 lowercase hex characters. The whole stream is consumed before a
// result is returned; a read failure yields ErrSourceUnavailable.
func Compute(r io.Reader) (string, error) {
	if r == nil {
		return "", ErrSourceUnavailable
	}
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ComputeFile opens path and hashes its contents.
func ComputeFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrSourceUnavailable, path, err)
	}
	defer f.Close()
	return Compute(f)
}
