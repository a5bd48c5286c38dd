package utils

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"time"
)

// NewHasher returns a hash for the named algorithm ("sha1" or "md5").
func NewHasher(algo string) (hash.Hash, error) {
	switch algo {
	case "sha1":
		return sha1.New(), nil
	case "md5":
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algo)
	}
}

// FileHash calculates the hex digest of a file with the given algorithm
func FileHash(filePath, algo string) (string, error) {
	h, err := NewHasher(algo)
	if err != nil {
		return "", err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteFileAtomic streams r into path through a temp file in the same
// directory and renames it into place. A non-zero modTime is applied before
// the rename so readers never see the file with a fresh mtime.
func WriteFileAtomic(path string, r io.Reader, modTime time.Time) (int64, error) {
	if err := EnsureParent(path); err != nil {
		return 0, fmt.Errorf("ensure parent: %w", err)
	}

	// *.gobox.tmp.* is never reported by the local tree walk
	tempFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+TempSuffix+"*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	n, err := io.Copy(tempFile, r)
	if err != nil {
		return n, fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return n, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return n, fmt.Errorf("close temp file: %w", err)
	}
	if !modTime.IsZero() {
		if err := os.Chtimes(tempPath, modTime, modTime); err != nil {
			return n, fmt.Errorf("set mtime: %w", err)
		}
	}
	if err := os.Rename(tempPath, path); err != nil {
		return n, fmt.Errorf("rename temp file to %s: %w", path, err)
	}

	success = true
	return n, nil
}

// TempSuffix marks in-flight files written by WriteFileAtomic.
const TempSuffix = ".gobox.tmp."
