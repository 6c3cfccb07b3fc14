// Package fsutil provides utility functions and constants for file system operations.
package fsutil

import (
	"os"
	"path/filepath"
)

// File and directory permission constants used consistently throughout
// the application.
const (
	// FileModeDefault is the default mode for regular files (-rw-r--r--).
	FileModeDefault = 0o644

	// DirModeDefault is the default mode for directories (drwxr-xr-x).
	DirModeDefault = 0o755
)

// EnsureDir creates a directory and all necessary parent directories with
// default permissions if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DirModeDefault)
}

// EnsureFileDir creates the parent directory of a file path if it doesn't
// exist. Useful when a file is about to be created at that path.
func EnsureFileDir(filePath string) error {
	return EnsureDir(filepath.Dir(filePath))
}
