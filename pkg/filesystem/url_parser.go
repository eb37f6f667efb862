package filesystem

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Exported constants.
const (
	// DefaultSSHPort is used when an sftp:// root names no port
	DefaultSSHPort = 22
	// SFTPScheme prefixes remote template roots
	SFTPScheme = "sftp://"
)

// Exported variables.
var (
	ErrInvalidRoot = errors.New("invalid template root")
)

// ParsedPath is a template root given either as a local path or as an
// sftp:// URL.
type ParsedPath struct {
	IsRemote bool

	// Local roots
	LocalPath string

	// Remote roots
	Host string
	Port int
	User string
	Path string // Relative to the login directory unless absolute
}

// ParsePath classifies a root. Remote roots look like
// sftp://user@host[:port]/path, where a single slash after the host makes
// the path relative to the login directory and a double slash makes it
// absolute:
//
//	sftp://joe@buildhost/templates/cpp-app     -> templates/cpp-app
//	sftp://joe@buildhost:2222//srv/checkouts   -> /srv/checkouts
//	sftp://joe@buildhost                       -> .
//
// Anything else is a local path.
func ParsePath(root string) (*ParsedPath, error) {
	switch {
	case root == "":
		return nil, fmt.Errorf("%w: root path must not be empty", ErrInvalidRoot)
	case strings.HasPrefix(root, SFTPScheme):
		return parseSFTPURL(root)
	default:
		return &ParsedPath{LocalPath: root}, nil
	}
}

func parseSFTPURL(root string) (*ParsedPath, error) {
	u, err := url.Parse(root) //nolint:varnamelen // u is idiomatic for URL
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}

	if u.User == nil || u.User.Username() == "" {
		return nil, fmt.Errorf("%w: SFTP URL must include username (sftp://user@host/path)", ErrInvalidRoot)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: SFTP URL must include host", ErrInvalidRoot)
	}

	port := DefaultSSHPort
	if raw := u.Port(); raw != "" {
		port, err = strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("%w: invalid port number %q", ErrInvalidRoot, raw)
		}
	}

	return &ParsedPath{
		IsRemote: true,
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Path:     remotePath(u.Path),
	}, nil
}

// remotePath turns the URL path into the path used on the server.
func remotePath(urlPath string) string {
	switch {
	case urlPath == "" || urlPath == "/":
		return "."
	case strings.HasPrefix(urlPath, "//"):
		return urlPath[1:]
	default:
		return strings.TrimPrefix(urlPath, "/")
	}
}

// String returns the root in canonical form, with the port spelled out.
func (p *ParsedPath) String() string {
	if p == nil {
		return "<nil>"
	}

	if !p.IsRemote {
		return p.LocalPath
	}

	return fmt.Sprintf("%s%s@%s:%d/%s", SFTPScheme, p.User, p.Host, p.Port, p.Path)
}
