// Package config handles application configuration and command-line argument parsing.
package config

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"regexp"

	"github.com/alexflint/go-arg"

	"github.com/joe/init-project/internal/ignore"
	"github.com/joe/init-project/pkg/filesystem"
)

// Exported constants.
const (
	// MaxKeyLength is the longest accepted project or executable name
	MaxKeyLength = 60
	// MaxProjectNumber is the largest project number; IDs are six digits
	MaxProjectNumber = 999999
	// ProgramName is the binary name shown in usage text
	ProgramName = "init-project"
	// RulesFileName is the rules file looked up in the root when --rules-file is not given
	RulesFileName = ".init-project.yaml"
	// TOMLRulesFileName is looked up when RulesFileName is absent
	TOMLRulesFileName = ".init-project.toml"
)

// Exported variables.
var (
	ErrHelpRequested    = errors.New("help requested")
	ErrInvalidKey       = errors.New("invalid key")
	ErrVersionRequested = errors.New("version requested")
)

// unexported variables.
var (
	//nolint:gochecknoglobals // Compiled once, shared by every validation
	keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
)

// Config holds the application configuration
type Config struct {
	ProjectName    string        `arg:"positional,required" placeholder:"PROJECT_NAME" help:"Project name, replaces <PROJ>"`
	ExecName       string        `arg:"positional,required" placeholder:"EXEC_NAME" help:"Executable name, replaces <EXEC>"`
	Num            *int          `arg:"-n,--num" placeholder:"NUM" help:"Project number 0-999999, replaces __PROJID__ zero-padded to six digits (random if omitted)"`
	DryRun         bool          `arg:"-d,--dry-run" help:"Perform a dry-run execution without making changes"`
	NoSelfDestruct bool          `arg:"-q,--no-self-destruct" help:"Keep the init tool and its rules file after a successful run"`
	Root           string        `arg:"--root" help:"Template root: a local directory or sftp://user@host[:port]/path"`
	Identity       string        `arg:"-i,--identity" placeholder:"KEY" help:"SSH private key for an sftp:// root, tried before the agent"`
	KnownHosts     string        `arg:"--known-hosts" placeholder:"FILE" help:"known_hosts file for an sftp:// root (default: ~/.ssh/known_hosts)"`
	RulesFile      string        `arg:"--rules-file" placeholder:"FILE" help:"YAML or TOML file with extra placeholders and excludes (default: .init-project.yaml or .init-project.toml in the root, if present)"`
	Excludes       []string      `arg:"--exclude,separate" placeholder:"GLOB" help:"Exclude paths matching a glob; may be repeated"`
	IgnoreSyntax   ignore.Syntax `arg:"--ignore-syntax" help:"How .gitignore lines are read: regex|glob|gitignore"`
	ShowTree       bool          `arg:"--show-tree" help:"Print the resulting layout as a tree"`
	Diff           bool          `arg:"--diff" help:"With --dry-run, show a unified diff of every file that would be rewritten"`
	Verbose        int           `arg:"-v,--verbose" help:"Log verbosity: 0 warn, 1 info, 2 debug, 3 trace"`
	NoColor        bool          `arg:"--no-color" help:"Disable colored output"`
	LogFile        string        `arg:"--log-file" placeholder:"FILE" help:"Log file path (default: under the XDG state directory)"`

	// Derived by PostProcessConfig
	ProjectID string `arg:"-"`
	Cleanup   bool   `arg:"-"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Instantiates a project template in place: renames and rewrites every " +
		"__PROJID__, <PROJ> and <EXEC> placeholder below the root"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return "init-project 1.0.0"
}

// ParseFlags parses args (without the program name) and returns the
// validated configuration. Help and version output go to out, after which
// ErrHelpRequested or ErrVersionRequested is returned.
func ParseFlags(args []string, out io.Writer) (*Config, error) {
	cfg := &Config{
		Root:         ".",
		IgnoreSyntax: ignore.SyntaxRegex,
	}

	parser, err := arg.NewParser(arg.Config{Program: ProgramName}, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build argument parser: %w", err)
	}

	err = parser.Parse(args)
	switch {
	case errors.Is(err, arg.ErrHelp):
		parser.WriteHelp(out)
		return nil, ErrHelpRequested
	case errors.Is(err, arg.ErrVersion):
		_, _ = fmt.Fprintln(out, cfg.Version())
		return nil, ErrVersionRequested
	case err != nil:
		parser.WriteUsage(out)
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	return PostProcessConfig(cfg, RandomProjectNumber)
}

// PostProcessConfig validates a parsed config and fills in derived fields.
// randomNumber supplies the project number when none was given.
func PostProcessConfig(cfg *Config, randomNumber func() int) (*Config, error) {
	var err error

	cfg.ProjectName, err = ValidateKey("project name", cfg.ProjectName)
	if err != nil {
		return nil, err
	}

	cfg.ExecName, err = ValidateKey("executable name", cfg.ExecName)
	if err != nil {
		return nil, err
	}

	var num int
	if cfg.Num != nil {
		num = *cfg.Num
	} else {
		num = randomNumber()
	}

	cfg.ProjectID, err = FormatProjectID(num)
	if err != nil {
		return nil, err
	}

	if _, err := filesystem.ParsePath(cfg.Root); err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}

	for _, pattern := range cfg.Excludes {
		if _, err := ignore.NewGlobMatcher(pattern); err != nil {
			return nil, fmt.Errorf("invalid --exclude: %w", err)
		}
	}

	if cfg.Verbose < 0 {
		cfg.Verbose = 0
	}

	// Dry run never removes anything
	cfg.Cleanup = !cfg.NoSelfDestruct && !cfg.DryRun

	return cfg, nil
}

// RemoteOptions returns the settings used to reach an sftp:// root.
func (cfg *Config) RemoteOptions() filesystem.RemoteOptions {
	return filesystem.RemoteOptions{
		IdentityFile: cfg.Identity,
		KnownHosts:   cfg.KnownHosts,
	}
}

// ValidateKey checks value is 1-60 characters, starts with a lowercase
// letter and otherwise holds only lowercase letters, digits, '_' and '-'.
// Uppercase is rejected, not folded.
func ValidateKey(kind, value string) (string, error) {
	key := value

	if key == "" {
		return "", fmt.Errorf("%w: %s must not be empty", ErrInvalidKey, kind)
	}

	if len(key) > MaxKeyLength {
		return "", fmt.Errorf("%w: %s %q is longer than %d characters", ErrInvalidKey, kind, value, MaxKeyLength)
	}

	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %s %q must start with a letter [a-z] and contain only [a-z], digits, '_' or '-'",
			ErrInvalidKey, kind, value)
	}

	return key, nil
}

// FormatProjectID renders a project number as six zero-padded digits.
func FormatProjectID(num int) (string, error) {
	if num < 0 || num > MaxProjectNumber {
		return "", fmt.Errorf("project number %d out of range 0-%d", num, MaxProjectNumber)
	}

	return fmt.Sprintf("%06d", num), nil
}

// RandomProjectNumber returns a uniformly random project number.
func RandomProjectNumber() int {
	return rand.IntN(MaxProjectNumber + 1) //nolint:gosec // Not security sensitive
}

// DefaultArtifacts returns the paths, relative to the root, that make up the
// init tool itself. They are never rewritten and are removed after a
// successful run unless cleanup is disabled.
func DefaultArtifacts() []string {
	return []string{"init", "init-project", RulesFileName, TOMLRulesFileName}
}
