// Package fileops provides whole-file read and rewrite helpers on top of a
// filesystem.FileSystem.
package fileops

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/joe/init-project/pkg/filesystem"
)

// Exported constants.
const (
	// BufferSize is the size of the buffer used when reading files (64KB)
	BufferSize = 64 * 1024
)

// Exported variables.
var (
	ErrShortWrite = errors.New("short write")
)

// FileOps provides file operations with dependency injection for filesystem access.
// This allows for testing without actual filesystem I/O.
type FileOps struct {
	FS filesystem.FileSystem
}

// NewFileOps creates a new FileOps instance with the given filesystem.
func NewFileOps(fs filesystem.FileSystem) *FileOps {
	return &FileOps{FS: fs}
}

// ReadFile reads the whole file. The handle is closed before returning.
func (fo *FileOps) ReadFile(path string) ([]byte, error) {
	file, err := fo.FS.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	var buf bytes.Buffer

	_, err = io.CopyBuffer(&buf, file, make([]byte, BufferSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return buf.Bytes(), nil
}

// WriteFile truncates path and writes data to it, so the file size becomes
// exactly len(data).
func (fo *FileOps) WriteFile(path string, data []byte) error {
	file, err := fo.FS.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s for writing: %w", path, err)
	}

	written, err := file.Write(data)
	if err == nil && written != len(data) {
		err = ErrShortWrite
	}

	closeErr := file.Close()

	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close file %s: %w", path, closeErr)
	}

	return nil
}
