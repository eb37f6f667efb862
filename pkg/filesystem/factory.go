package filesystem

import (
	"fmt"
)

// CreateFileSystem resolves a template root to a FileSystem and the path to
// use on it: the local path itself, or the remote path of an sftp:// URL
// after connecting with opts. closer is nil for local roots and must be
// called otherwise.
func CreateFileSystem(root string, opts RemoteOptions) (fsys FileSystem, base string, closer func(), err error) {
	parsed, err := ParsePath(root)
	if err != nil {
		return nil, "", nil, err
	}

	if !parsed.IsRemote {
		return NewRealFileSystem(), parsed.LocalPath, nil, nil
	}

	conn, err := Connect(parsed, opts)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to connect to %s: %w", parsed, err)
	}

	return NewSFTPFileSystem(conn), parsed.Path, func() { _ = conn.Close() }, nil
}
