package filesystem

import (
	"sort"
	"strings"
)

// newMockFileScanner lists the mock entries below root in walk order.
func newMockFileScanner(fs *MockFileSystem, root string) FileScanner {
	return newCollectedScanner(func() ([]FileInfo, error) {
		return fs.list(root), nil
	})
}

// list collects the entries under root, sorted in walk order.
func (fs *MockFileSystem) list(root string) []FileInfo {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	prefix := root + "/"
	if root == "." {
		prefix = ""
	}

	var files []FileInfo

	for p, file := range fs.files {
		if p == root || p == "." || !strings.HasPrefix(p, prefix) {
			continue
		}

		files = append(files, FileInfo{
			RelativePath: strings.TrimPrefix(p, prefix),
			Size:         int64(len(file.data)),
			ModTime:      file.modTime,
			Kind:         file.kind,
		})
	}

	// A directory's children come right after it, lexically.
	sort.Slice(files, func(i, j int) bool {
		return walkLess(files[i].RelativePath, files[j].RelativePath)
	})

	return files
}

// walkLess orders slash paths the way a lexical depth-first walk visits
// them, which differs from plain string order when names contain bytes
// below '/' such as '-' or '.'.
func walkLess(a, b string) bool {
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")

	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}

	return len(as) < len(bs)
}
