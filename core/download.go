package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// DownloadOptions configures a model file download.
type DownloadOptions struct {
	// URL to download from
	URL string
	// DestPath is the local file path to save to
	DestPath string
	// ExpectedSHA256 is the optional expected SHA256 checksum (lowercase hex).
	// If provided, the downloaded file is verified against it.
	ExpectedSHA256 string
	// HTTPClient is the HTTP client to use (a default client is created if nil)
	HTTPClient *http.Client
	// OnProgress is called periodically with the number of bytes written so far
	// and the total size reported by the server (-1 when unknown). Optional.
	OnProgress func(written, total int64)
}

// DownloadFile downloads a file to a temporary path, optionally verifies its
// checksum, and atomically renames it into place. A failed or interrupted
// download never leaves a partial file at DestPath.
func DownloadFile(ctx context.Context, opts DownloadOptions) error {
	if opts.URL == "" {
		return fmt.Errorf("download URL cannot be empty")
	}
	if opts.DestPath == "" {
		return fmt.Errorf("download destination cannot be empty")
	}

	client := opts.HTTPClient
	if client == nil {
		// No timeout for large model files; the context handles cancellation.
		client = &http.Client{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: server returned %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(opts.DestPath), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	tmpPath := opts.DestPath + ".partial"
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, copyErr := copyWithProgress(tmp, resp.Body, resp.ContentLength, opts.OnProgress)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download interrupted after %d bytes: %w", written, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize temporary file: %w", closeErr)
	}

	if opts.ExpectedSHA256 != "" {
		if err := VerifySHA256(tmpPath, opts.ExpectedSHA256); err != nil {
			os.Remove(tmpPath)
			return err
		}
	}

	if err := os.Rename(tmpPath, opts.DestPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move downloaded file into place: %w", err)
	}
	return nil
}

// progressInterval is how many bytes between progress callbacks.
const progressInterval = 8 << 20 // 8 MiB

// copyWithProgress copies src to dst, invoking onProgress at most once per
// progressInterval bytes and once at completion.
func copyWithProgress(dst io.Writer, src io.Reader, total int64, onProgress func(written, total int64)) (int64, error) {
	if onProgress == nil {
		return io.Copy(dst, src)
	}

	var written, lastReport int64
	buf := make([]byte, 256<<10)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			wn, writeErr := dst.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			if written-lastReport >= progressInterval {
				onProgress(written, total)
				lastReport = written
			}
		}
		if readErr == io.EOF {
			onProgress(written, total)
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
