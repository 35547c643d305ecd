package core

import (
	"os"
	"path/filepath"
)

// EnsureDirectories creates every directory the service needs before the
// runtime is constructed: the models directory, the outputs scratch
// directory, and the parent directories of the database and log files.
//
// The operation is idempotent; calling it repeatedly is safe and cheap,
// so the pipeline manager can invoke it on every acquisition attempt.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.ModelsDir,
		c.OutputsDir,
		filepath.Dir(c.DatabasePath),
	}
	if c.LogFile != "" {
		dirs = append(dirs, filepath.Dir(c.LogFile))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
