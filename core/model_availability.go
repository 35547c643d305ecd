package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ResolveModelPath returns the local path the model file should live at.
// An explicit SD_MODEL_PATH wins; otherwise the filename is derived from the
// download URL and placed under the models directory.
func (c *Config) ResolveModelPath() string {
	if c.ModelPath != "" {
		return c.ModelPath
	}
	return filepath.Join(c.ModelsDir, filepath.Base(c.ModelURL))
}

// EnsureModelAvailable guarantees the model file exists locally before the
// runtime is constructed, downloading it when a URL is configured.
//
// Behavior:
//   - File exists and no checksum configured: return its path.
//   - File exists and checksum configured: verify; a mismatch with a download
//     URL triggers a re-download, otherwise it is an error.
//   - File missing and URL configured: download (with checksum verification
//     when configured).
//   - File missing and no URL: error.
//
// The onProgress callback is forwarded to the downloader and may be nil.
func (c *Config) EnsureModelAvailable(ctx context.Context, onProgress func(written, total int64)) (string, error) {
	path := c.ResolveModelPath()

	if _, err := os.Stat(path); err == nil {
		if c.ModelSHA256 == "" {
			return path, nil
		}
		verifyErr := VerifySHA256(path, c.ModelSHA256)
		if verifyErr == nil {
			return path, nil
		}
		if c.ModelURL == "" {
			return "", ErrModelUnavailable(path, verifyErr)
		}
		// Corrupt local copy with a known source: fetch a fresh one.
	} else if !os.IsNotExist(err) {
		return "", ErrModelUnavailable(path, err)
	} else if c.ModelURL == "" {
		return "", ErrModelUnavailable(path, fmt.Errorf("file does not exist"))
	}

	err := DownloadFile(ctx, DownloadOptions{
		URL:            c.ModelURL,
		DestPath:       path,
		ExpectedSHA256: c.ModelSHA256,
		OnProgress:     onProgress,
	})
	if err != nil {
		return "", ErrModelUnavailable(path, err)
	}
	return path, nil
}
