// Package filesystem provides an abstraction layer for filesystem operations
// to enable dependency injection and testing without actual filesystem I/O.
package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Exported variables.
var (
	ErrDestinationExists = errors.New("destination already exists")
)

// File is an interface that abstracts file operations.
// This allows us to work with both real files and mock files.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Stat() (os.FileInfo, error)
}

// FileSystem is an interface that abstracts filesystem operations.
// This allows for dependency injection and testing with mock implementations.
//
// Paths handed to a FileSystem are in the backend's native form; use Join to
// build them so that local and remote backends can share callers.
type FileSystem interface {
	// Scan returns an iterator over every entry below path, parents first.
	// Symbolic links are reported, never followed.
	Scan(path string) FileScanner

	// Open opens a file for reading.
	Open(path string) (File, error)
	// Create creates a file for writing, truncating it if it exists.
	Create(path string) (File, error)
	// Rename moves oldPath to newPath. It fails with ErrDestinationExists
	// rather than replacing an existing destination.
	Rename(oldPath, newPath string) error
	// RemoveAll removes path and any children. A missing path is not an error.
	RemoveAll(path string) error
	Stat(path string) (os.FileInfo, error)
	Lstat(path string) (os.FileInfo, error)

	// Join joins path elements using the backend's separator.
	Join(elem ...string) string
}

// RealFileSystem implements FileSystem using actual os/filepath functions.
type RealFileSystem struct{}

// NewRealFileSystem creates a new RealFileSystem instance.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// Create creates a file for writing, truncating any previous content.
func (fs *RealFileSystem) Create(path string) (File, error) {
	file, err := os.Create(path) // #nosec G304 - path comes from the scanned tree
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	return file, nil
}

// Join joins path elements with the OS separator.
func (fs *RealFileSystem) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// Lstat returns file information without following symbolic links.
func (fs *RealFileSystem) Lstat(path string) (os.FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to lstat %s: %w", path, err)
	}

	return info, nil
}

// Open opens a file for reading.
func (fs *RealFileSystem) Open(path string) (File, error) {
	file, err := os.Open(path) // #nosec G304 - path comes from the scanned tree
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return file, nil
}

// RemoveAll removes a path and everything below it.
func (fs *RealFileSystem) RemoveAll(path string) error {
	err := os.RemoveAll(path)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

// Rename moves oldPath to newPath, refusing to replace an existing destination.
func (fs *RealFileSystem) Rename(oldPath, newPath string) error {
	if _, err := os.Lstat(newPath); err == nil {
		return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, ErrDestinationExists)
	}

	err := os.Rename(oldPath, newPath)
	if err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, err)
	}

	return nil
}

// Scan returns an iterator over all entries in a directory tree.
func (fs *RealFileSystem) Scan(path string) FileScanner {
	return newRealFileScanner(path)
}

// Stat returns file information.
func (fs *RealFileSystem) Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info, nil
}
