package filesystem

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Exported constants.
const (
	// DefaultDialTimeout bounds the TCP and SSH handshake for a remote root
	DefaultDialTimeout = 15 * time.Second
)

// Exported variables.
var (
	ErrNoAuthMethods = errors.New("no SSH authentication methods available (tried identity file, SSH agent and default keys)")
	ErrIdentityFile  = errors.New("unusable identity file")
)

// RemoteOptions tune how an sftp:// template root is reached. The zero
// value uses the SSH agent, the default keys and ~/.ssh/known_hosts.
type RemoteOptions struct {
	IdentityFile string        // Private key tried before the agent
	KnownHosts   string        // known_hosts file to verify the server against
	Timeout      time.Duration // Zero means DefaultDialTimeout
}

// SFTPConnection holds an active SSH/SFTP connection to a remote root.
type SFTPConnection struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	target     *ParsedPath
}

// Connect dials the host of a remote root and opens an SFTP session on it.
func Connect(target *ParsedPath, opts RemoteOptions) (*SFTPConnection, error) {
	if target == nil || !target.IsRemote {
		return nil, fmt.Errorf("not a remote root: %v", target) //nolint:err113 // Programming error
	}

	authMethods, err := authMethodsFor(opts)
	if err != nil {
		return nil, err
	}

	hostKeys, err := hostKeyCallback(opts.KnownHosts)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	addr := net.JoinHostPort(target.Host, strconv.Itoa(target.Port))
	sshClient, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            target.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeys,
		Timeout:         timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("SSH connection to %s failed: %w", addr, err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("SFTP session creation failed: %w", err)
	}

	return &SFTPConnection{sshClient: sshClient, sftpClient: sftpClient, target: target}, nil
}

// Close closes the SFTP session and then the SSH connection, returning the
// first error.
func (c *SFTPConnection) Close() error {
	var firstErr error

	if c.sftpClient != nil {
		firstErr = c.sftpClient.Close()
	}

	if c.sshClient != nil {
		if err := c.sshClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Client returns the underlying SFTP client.
func (c *SFTPConnection) Client() *sftp.Client {
	return c.sftpClient
}

// String returns the root this connection serves.
func (c *SFTPConnection) String() string {
	return c.target.String()
}

// authMethodsFor collects the ways to authenticate: an explicit identity
// file first, then the SSH agent, then the default keys. An explicit
// identity file that cannot be used is an error rather than a silent skip.
func authMethodsFor(opts RemoteOptions) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if opts.IdentityFile != "" {
		signer, err := loadSigner(opts.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrIdentityFile, opts.IdentityFile, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if agentAuth := trySSHAgent(); agentAuth != nil {
		methods = append(methods, agentAuth)
	}

	methods = append(methods, defaultKeyAuth()...)

	if len(methods) == 0 {
		return nil, ErrNoAuthMethods
	}

	return methods, nil
}

// hostKeyCallback verifies servers against path, or ~/.ssh/known_hosts when
// path is empty. Without a default known_hosts file any host key is
// accepted; an explicit path must exist.
func hostKeyCallback(path string) (ssh.HostKeyCallback, error) {
	if path != "" {
		return knownhosts.New(path)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // no home directory to read known_hosts from
	}

	defaultPath := filepath.Join(homeDir, ".ssh", "known_hosts")
	if _, err := os.Stat(defaultPath); errors.Is(err, os.ErrNotExist) {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // no known_hosts file
	}

	return knownhosts.New(defaultPath)
}

// trySSHAgent returns agent-backed auth when SSH_AUTH_SOCK is reachable.
func trySSHAgent() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil
	}

	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers)
}

// defaultKeyAuth loads whichever of the usual unencrypted keys exist.
func defaultKeyAuth() []ssh.AuthMethod {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	var methods []ssh.AuthMethod

	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		signer, err := loadSigner(filepath.Join(homeDir, ".ssh", name))
		if err != nil {
			continue
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	return methods
}

// loadSigner parses an unencrypted private key.
func loadSigner(path string) (ssh.Signer, error) {
	keyData, err := os.ReadFile(path) // #nosec G304 - key path from flag or fixed location
	if err != nil {
		return nil, err
	}

	return ssh.ParsePrivateKey(keyData)
}
