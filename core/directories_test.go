package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{
		ModelsDir:    filepath.Join(root, "models"),
		OutputsDir:   filepath.Join(root, "outputs"),
		DatabasePath: filepath.Join(root, "data", "history.db"),
		LogFile:      filepath.Join(root, "logs", "app.log"),
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, dir := range []string{
		cfg.ModelsDir,
		cfg.OutputsDir,
		filepath.Join(root, "data"),
		filepath.Join(root, "logs"),
	} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("expected directory %s to exist: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("expected %s to be a directory", dir)
		}
	}

	// Idempotent: a second call must succeed
	if err := cfg.EnsureDirectories(); err != nil {
		t.Errorf("expected repeated call to succeed, got: %v", err)
	}
}
