package filesystem

import (
	"fmt"
	"path"
	"strings"

	"github.com/kr/fs"
	"github.com/pkg/sftp"
)

// newSFTPScanner lists a remote directory tree.
func newSFTPScanner(client *sftp.Client, root string) FileScanner {
	return newCollectedScanner(func() ([]FileInfo, error) {
		return collectWalk(client.Walk(root), root)
	})
}

// collectWalk drains a kr/fs walker and returns the entries below root.
// The walker lstats entries, so links are classified and not descended into.
func collectWalk(walker *fs.Walker, root string) ([]FileInfo, error) {
	var files []FileInfo

	for walker.Step() {
		if err := walker.Err(); err != nil { //nolint:noinlineerr // Inline error check is idiomatic for walker error handling
			return nil, fmt.Errorf("error scanning remote directory: %w", err)
		}

		fullPath := walker.Path()
		if path.Clean(fullPath) == path.Clean(root) {
			continue
		}

		rel, err := relativePath(root, fullPath)
		if err != nil {
			return nil, err
		}

		stat := walker.Stat()
		files = append(files, FileInfo{
			RelativePath: rel,
			Size:         stat.Size(),
			ModTime:      stat.ModTime(),
			Kind:         KindOf(stat.Mode()),
		})
	}

	return files, nil
}

// relativePath returns target relative to root. SFTP paths always use
// forward slashes, hence path rather than filepath.
func relativePath(root, target string) (string, error) {
	root, target = path.Clean(root), path.Clean(target)

	if root == "." {
		return target, nil
	}

	prefix := root
	if prefix != "/" {
		prefix += "/"
	}

	rel, ok := strings.CutPrefix(target, prefix)
	if !ok {
		return "", fmt.Errorf("target %s is not under root %s", target, root) //nolint:err113 // Path validation error with actual paths
	}

	return rel, nil
}
