// Package filesystem provides an abstraction layer for filesystem operations.
package filesystem

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// Exported variables.
var (
	ErrInjected = errors.New("injected failure")
)

// MockFileSystem is an in-memory filesystem implementation for testing.
// Paths are slash separated and cleaned; "." is the root.
type MockFileSystem struct {
	mu         sync.RWMutex
	files      map[string]*mockFile
	failOpen   map[string]bool
	failCreate map[string]bool
	writes     map[string]int
}

// mockFile represents a file in the mock filesystem.
type mockFile struct {
	path    string
	data    []byte
	modTime time.Time
	kind    EntryKind
	perm    os.FileMode
}

// mockFileInfo implements os.FileInfo for mock files.
type mockFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	mode    os.FileMode
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *mockFileInfo) Sys() interface{}   { return nil }

// mockFileHandle implements the File interface for reading/writing.
type mockFileHandle struct {
	fs     *MockFileSystem
	path   string
	reader *bytes.Reader
	writer *bytes.Buffer
	closed bool
}

func (f *mockFileHandle) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if f.reader == nil {
		return 0, io.EOF
	}
	return f.reader.Read(p)
}

func (f *mockFileHandle) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if f.writer == nil {
		return 0, fmt.Errorf("%s not opened for writing", f.path)
	}
	return f.writer.Write(p)
}

func (f *mockFileHandle) Close() error {
	if f.closed {
		return os.ErrClosed
	}
	f.closed = true

	// If we were writing, save the data
	if f.writer != nil {
		f.fs.mu.Lock()
		defer f.fs.mu.Unlock()

		if file, exists := f.fs.files[f.path]; exists {
			file.data = append([]byte(nil), f.writer.Bytes()...)
			file.modTime = time.Now()
		}
	}

	return nil
}

func (f *mockFileHandle) Stat() (os.FileInfo, error) {
	if f.closed {
		return nil, os.ErrClosed
	}

	return f.fs.Stat(f.path)
}

// NewMockFileSystem creates a new in-memory filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files: map[string]*mockFile{
			".": {path: ".", kind: KindDir, perm: 0o755, modTime: time.Now()},
		},
		failOpen:   make(map[string]bool),
		failCreate: make(map[string]bool),
		writes:     make(map[string]int),
	}
}

// Create truncates (or creates) a file and returns a handle for writing.
// The new content becomes visible when the handle is closed.
func (fs *MockFileSystem) Create(name string) (File, error) {
	name = path.Clean(name)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.failCreate[name] {
		return nil, fmt.Errorf("open %s: permission denied: %w", name, ErrInjected)
	}

	file, exists := fs.files[name]
	if exists && file.kind != KindFile {
		return nil, fmt.Errorf("create %s: is a directory", name)
	}
	if !exists {
		if _, ok := fs.files[path.Dir(name)]; !ok {
			return nil, fmt.Errorf("create %s: %w", name, os.ErrNotExist)
		}
		file = &mockFile{path: name, kind: KindFile, perm: 0o644}
		fs.files[name] = file
	}

	file.data = []byte{}
	file.modTime = time.Now()
	fs.writes[name]++

	return &mockFileHandle{
		fs:     fs,
		path:   name,
		writer: &bytes.Buffer{},
	}, nil
}

// Join joins path elements with forward slashes.
func (fs *MockFileSystem) Join(elem ...string) string {
	return path.Join(elem...)
}

// Lstat returns file information. The mock never follows symlinks.
func (fs *MockFileSystem) Lstat(name string) (os.FileInfo, error) {
	return fs.Stat(name)
}

// Open opens a file for reading.
func (fs *MockFileSystem) Open(name string) (File, error) {
	name = path.Clean(name)

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if fs.failOpen[name] {
		return nil, fmt.Errorf("open %s: permission denied: %w", name, ErrInjected)
	}

	file, exists := fs.files[name]
	if !exists {
		return nil, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
	}

	if file.kind == KindDir {
		return nil, fmt.Errorf("open %s: is a directory", name)
	}

	return &mockFileHandle{
		fs:     fs,
		path:   name,
		reader: bytes.NewReader(file.data),
	}, nil
}

// RemoveAll removes a path and everything below it.
func (fs *MockFileSystem) RemoveAll(name string) error {
	name = path.Clean(name)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	for p := range fs.files {
		if p == name || strings.HasPrefix(p, name+"/") {
			delete(fs.files, p)
		}
	}

	return nil
}

// Rename moves a file or directory subtree. The destination must not exist.
func (fs *MockFileSystem) Rename(oldPath, newPath string) error {
	oldPath = path.Clean(oldPath)
	newPath = path.Clean(newPath)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, exists := fs.files[oldPath]; !exists {
		return fmt.Errorf("rename %s %s: %w", oldPath, newPath, os.ErrNotExist)
	}
	if _, exists := fs.files[newPath]; exists {
		return fmt.Errorf("rename %s %s: %w", oldPath, newPath, ErrDestinationExists)
	}
	if _, exists := fs.files[path.Dir(newPath)]; !exists {
		return fmt.Errorf("rename %s %s: %w", oldPath, newPath, os.ErrNotExist)
	}

	moved := make(map[string]*mockFile)
	for p, file := range fs.files {
		switch {
		case p == oldPath:
			moved[newPath] = file
		case strings.HasPrefix(p, oldPath+"/"):
			moved[newPath+strings.TrimPrefix(p, oldPath)] = file
		default:
			continue
		}
		delete(fs.files, p)
	}

	for p, file := range moved {
		file.path = p
		fs.files[p] = file
	}

	return nil
}

// Scan returns an iterator over all entries in a directory tree.
func (fs *MockFileSystem) Scan(root string) FileScanner {
	return newMockFileScanner(fs, path.Clean(root))
}

// Stat returns file information.
func (fs *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	name = path.Clean(name)

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[name]
	if !exists {
		return nil, fmt.Errorf("stat %s: %w", name, os.ErrNotExist)
	}

	return file.info(), nil
}

func (f *mockFile) info() *mockFileInfo {
	mode := f.perm
	switch f.kind {
	case KindDir:
		mode |= os.ModeDir
	case KindSymlink:
		mode |= os.ModeSymlink
	case KindOther:
		mode |= os.ModeDevice
	case KindFile:
	}

	return &mockFileInfo{
		name:    path.Base(f.path),
		size:    int64(len(f.data)),
		modTime: f.modTime,
		mode:    mode,
	}
}

// mkdirAllLocked creates missing parent directories; assumes the lock is held.
func (fs *MockFileSystem) mkdirAllLocked(name string, modTime time.Time) {
	if name == "." || name == "/" {
		return
	}

	fs.mkdirAllLocked(path.Dir(name), modTime)

	if _, exists := fs.files[name]; !exists {
		fs.files[name] = &mockFile{
			path:    name,
			modTime: modTime,
			kind:    KindDir,
			perm:    0o755,
		}
	}
}

// Helper methods for testing

// AddFile adds a file to the mock filesystem with the given content and modtime.
func (fs *MockFileSystem) AddFile(name string, content []byte, modTime time.Time) {
	fs.add(name, KindFile, content, modTime)
}

// AddDir adds a directory (and any missing parents) to the mock filesystem.
func (fs *MockFileSystem) AddDir(name string, modTime time.Time) {
	fs.add(name, KindDir, nil, modTime)
}

// AddSymlink adds a symbolic link entry whose data is its target.
func (fs *MockFileSystem) AddSymlink(name, target string, modTime time.Time) {
	fs.add(name, KindSymlink, []byte(target), modTime)
}

// AddDevice adds an entry that is neither file, directory nor symlink.
func (fs *MockFileSystem) AddDevice(name string, modTime time.Time) {
	fs.add(name, KindOther, nil, modTime)
}

func (fs *MockFileSystem) add(name string, kind EntryKind, content []byte, modTime time.Time) {
	name = path.Clean(name)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.mkdirAllLocked(path.Dir(name), modTime)

	perm := os.FileMode(0o644)
	if kind == KindDir {
		perm = 0o755
	}

	fs.files[name] = &mockFile{
		path:    name,
		data:    append([]byte(nil), content...),
		modTime: modTime,
		kind:    kind,
		perm:    perm,
	}
}

// FailOpen makes subsequent Open calls for the path fail.
func (fs *MockFileSystem) FailOpen(name string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.failOpen[path.Clean(name)] = true
}

// FailCreate makes subsequent Create calls for the path fail.
func (fs *MockFileSystem) FailCreate(name string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.failCreate[path.Clean(name)] = true
}

// GetFile retrieves a file's content from the mock filesystem.
func (fs *MockFileSystem) GetFile(name string) ([]byte, time.Time, error) {
	name = path.Clean(name)

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[name]
	if !exists {
		return nil, time.Time{}, os.ErrNotExist
	}

	if file.kind == KindDir {
		return nil, time.Time{}, fmt.Errorf("is a directory")
	}

	return append([]byte(nil), file.data...), file.modTime, nil
}

// Exists checks if a path exists in the mock filesystem.
func (fs *MockFileSystem) Exists(name string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, exists := fs.files[path.Clean(name)]
	return exists
}

// ListFiles returns all paths in the mock filesystem except the root.
func (fs *MockFileSystem) ListFiles() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	paths := make([]string, 0, len(fs.files))
	for p := range fs.files {
		if p == "." {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// WriteCount returns how many times the path was opened for writing.
func (fs *MockFileSystem) WriteCount(name string) int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return fs.writes[path.Clean(name)]
}
