// Package static provides the embedded browser UI for the generation service.
package static

import (
	"embed"
	"io/fs"
)

// StaticFS contains the embedded web UI assets.
//
//go:embed index.html
var StaticFS embed.FS

// GetFS returns the embedded filesystem for use with http.FileServer.
func GetFS() fs.FS {
	return StaticFS
}

// ReadFile reads a file from the embedded filesystem.
func ReadFile(name string) ([]byte, error) {
	return StaticFS.ReadFile(name)
}
