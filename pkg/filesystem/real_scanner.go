package filesystem

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// newRealFileScanner lists a local directory tree.
func newRealFileScanner(root string) FileScanner {
	return newCollectedScanner(func() ([]FileInfo, error) {
		return walkLocal(root)
	})
}

// walkLocal lists everything below root in lexical walk order. WalkDir does
// not follow symlinks, so a linked directory is reported once as a symlink.
func walkLocal(root string) ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", path, err)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		files = append(files, FileInfo{
			RelativePath: filepath.ToSlash(rel),
			Size:         info.Size(),
			ModTime:      info.ModTime(),
			Kind:         KindOf(info.Mode()),
		})

		return nil
	})

	return files, err
}
