package filesystem

import (
	"io/fs"
	"time"
)

// EntryKind classifies a scanned filesystem object.
type EntryKind int

const (
	// KindOther is anything that is not a directory, regular file or symlink
	// (devices, sockets, pipes).
	KindOther EntryKind = iota
	// KindDir is a directory
	KindDir
	// KindFile is a regular file
	KindFile
	// KindSymlink is a symbolic link (never followed)
	KindSymlink
)

// String returns the string representation of EntryKind
func (k EntryKind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	case KindSymlink:
		return "symlink"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// KindOf classifies a file mode as returned by Lstat.
func KindOf(mode fs.FileMode) EntryKind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindDir
	case mode.IsRegular():
		return KindFile
	default:
		return KindOther
	}
}

// FileScanner is an iterator over files in a directory.
// It provides a simple Next pattern for traversing directory contents.
type FileScanner interface {
	// Next advances to the next file and returns its info.
	// Returns (FileInfo{}, false) when done or on error.
	// Check Err() after Next() returns false to distinguish between end-of-scan and error.
	Next() (FileInfo, bool)

	// Err returns any error that occurred during scanning.
	// Should be checked after Next() returns false.
	Err() error
}

// FileInfo contains metadata about a scanned entry.
type FileInfo struct {
	// RelativePath is the path relative to the scan root, always slash separated
	RelativePath string

	// Size is the file size in bytes
	Size int64

	// ModTime is the modification time
	ModTime time.Time

	// Kind classifies the entry
	Kind EntryKind
}

// IsDir reports whether the entry is a directory.
func (fi FileInfo) IsDir() bool {
	return fi.Kind == KindDir
}

// collectedScanner gathers the whole listing on the first call to Next and
// then iterates over it, so the tree is captured before anything below the
// root is renamed.
type collectedScanner struct {
	collect func() ([]FileInfo, error)
	files   []FileInfo
	index   int
	err     error
	scanned bool
}

func newCollectedScanner(collect func() ([]FileInfo, error)) *collectedScanner {
	return &collectedScanner{collect: collect, index: -1}
}

// Next advances to the next entry and returns its info.
func (s *collectedScanner) Next() (FileInfo, bool) {
	if !s.scanned {
		s.files, s.err = s.collect()
		s.scanned = true
	}

	if s.err != nil {
		return FileInfo{}, false
	}

	s.index++
	if s.index >= len(s.files) {
		return FileInfo{}, false
	}

	return s.files[s.index], true
}

// Err returns the error that stopped the listing, if any.
func (s *collectedScanner) Err() error {
	return s.err
}
