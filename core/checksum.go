package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// ComputeSHA256 computes the SHA256 hash of a file and returns it as a
// lowercase hexadecimal string. Used for verifying downloaded model files.
// This is a pure function with deterministic output for any given file contents.
func ComputeSHA256(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("filepath cannot be empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %q: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// VerifySHA256 checks a file against an expected SHA256 checksum.
// The comparison is case-insensitive. Returns an error describing the
// mismatch, or nil when the checksum matches.
func VerifySHA256(path, expected string) error {
	actual, err := ComputeSHA256(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch for %q: expected %s, got %s",
			path, strings.ToLower(expected), actual)
	}
	return nil
}
