package filesystem

import (
	"fmt"
	"os"
	"path"

	"github.com/pkg/sftp"
)

// SFTPFileSystem implements FileSystem over a single SFTP session.
type SFTPFileSystem struct {
	client *sftp.Client
}

// NewSFTPFileSystem creates a new SFTP filesystem using an established connection.
func NewSFTPFileSystem(conn *SFTPConnection) *SFTPFileSystem {
	return &SFTPFileSystem{
		client: conn.Client(),
	}
}

// Create creates or truncates a remote file for writing.
func (fs *SFTPFileSystem) Create(name string) (File, error) {
	file, err := fs.client.Create(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote file %s: %w", name, err)
	}

	return newSFTPFile(file, name), nil
}

// Join joins remote path elements; SFTP always uses forward slashes.
func (fs *SFTPFileSystem) Join(elem ...string) string {
	return path.Join(elem...)
}

// Lstat returns file information for a remote path without following links.
func (fs *SFTPFileSystem) Lstat(name string) (os.FileInfo, error) {
	info, err := fs.client.Lstat(name)
	if err != nil {
		return nil, fmt.Errorf("failed to lstat remote file %s: %w", name, err)
	}

	return info, nil
}

// Open opens a remote file for reading.
func (fs *SFTPFileSystem) Open(name string) (File, error) {
	file, err := fs.client.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote file %s: %w", name, err)
	}

	return newSFTPFile(file, name), nil
}

// RemoveAll removes a remote path and everything below it.
func (fs *SFTPFileSystem) RemoveAll(name string) error {
	if _, err := fs.client.Lstat(name); os.IsNotExist(err) {
		return nil
	}

	err := fs.client.RemoveAll(name)
	if err != nil {
		return fmt.Errorf("failed to remove remote path %s: %w", name, err)
	}

	return nil
}

// Rename moves a remote path, refusing to replace an existing destination.
func (fs *SFTPFileSystem) Rename(oldPath, newPath string) error {
	if _, err := fs.client.Lstat(newPath); err == nil {
		return fmt.Errorf("failed to rename remote %s to %s: %w", oldPath, newPath, ErrDestinationExists)
	}

	err := fs.client.Rename(oldPath, newPath)
	if err != nil {
		return fmt.Errorf("failed to rename remote %s to %s: %w", oldPath, newPath, err)
	}

	return nil
}

// Scan returns an iterator over all entries in a remote directory tree.
func (fs *SFTPFileSystem) Scan(root string) FileScanner {
	return newSFTPScanner(fs.client, root)
}

// Stat returns file information for a remote file.
func (fs *SFTPFileSystem) Stat(name string) (os.FileInfo, error) {
	info, err := fs.client.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("failed to stat remote file %s: %w", name, err)
	}

	return info, nil
}
