// Package ignore decides which tree entries are excluded from mutation.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/joe/init-project/pkg/filesystem"
)

// Exported variables.
var (
	ErrInvalidPattern = errors.New("invalid pattern")
)

// Syntax selects how ignore-file lines are interpreted.
type Syntax int

const (
	// SyntaxRegex treats each line as an unanchored regular expression
	SyntaxRegex Syntax = iota
	// SyntaxGlob treats each line as a doublestar glob over the relative path
	SyntaxGlob
	// SyntaxGitignore treats the file as a .gitignore
	SyntaxGitignore
)

// String returns the string representation of Syntax
func (s Syntax) String() string {
	switch s {
	case SyntaxRegex:
		return "regex"
	case SyntaxGlob:
		return "glob"
	case SyntaxGitignore:
		return "gitignore"
	default:
		return "unknown"
	}
}

// ParseSyntax parses a string into a Syntax
func ParseSyntax(s string) (Syntax, error) {
	switch strings.ToLower(s) {
	case "regex", "regexp":
		return SyntaxRegex, nil
	case "glob":
		return SyntaxGlob, nil
	case "gitignore", "git":
		return SyntaxGitignore, nil
	default:
		return SyntaxRegex, fmt.Errorf("invalid ignore syntax: %s (valid: regex, glob, gitignore)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg
func (s *Syntax) UnmarshalText(text []byte) error {
	parsed, err := ParseSyntax(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Matcher is a single exclusion predicate over a root-relative slash path
// such as "src/main.cpp". dir is set when the entry is a directory.
type Matcher interface {
	Matches(relPath string, dir bool) bool
	String() string
}

// RuleSet evaluates matchers in order. It is immutable once built.
type RuleSet struct {
	matchers []Matcher
}

// NewRuleSet creates a RuleSet from matchers, evaluated in the given order.
func NewRuleSet(matchers ...Matcher) *RuleSet {
	return &RuleSet{matchers: append([]Matcher(nil), matchers...)}
}

// ShouldIgnore returns true on the first matcher that matches relPath.
func (s *RuleSet) ShouldIgnore(relPath string, dir bool) bool {
	for _, m := range s.matchers {
		if m.Matches(relPath, dir) {
			return true
		}
	}

	return false
}

// Len returns the number of matchers.
func (s *RuleSet) Len() int {
	return len(s.matchers)
}

// Builtin returns the rules that are always active: the VCS marker
// directory, the ignore file itself and each tool artifact. They are
// anchored at the root so that, say, an artifact named "init" does not
// exclude "src/initialize.cpp".
func Builtin(vcsDir, ignoreFile string, artifacts []string) []Matcher {
	names := append([]string{vcsDir, ignoreFile}, artifacts...)

	matchers := make([]Matcher, 0, len(names))
	for _, name := range names {
		matchers = append(matchers, &RegexMatcher{
			re: regexp.MustCompile(`^\./` + regexp.QuoteMeta(name) + `(/|$)`),
		})
	}

	return matchers
}

// Load opens the ignore file at path on fsys and parses it.
func Load(fsys filesystem.FileSystem, path string, syntax Syntax) ([]Matcher, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return Parse(file, path, syntax)
}

// Parse reads ignore rules line by line. Blank lines and lines starting with
// '#' are skipped. source names the input in error messages.
func Parse(r io.Reader, source string, syntax Syntax) ([]Matcher, error) {
	var (
		lines    []string
		matchers []Matcher
	)

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch syntax {
		case SyntaxGitignore:
			lines = append(lines, line)
			continue
		case SyntaxGlob:
			m, err := NewGlobMatcher(line)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", source, lineNo, err)
			}
			matchers = append(matchers, m)
		case SyntaxRegex:
			m, err := NewRegexMatcher(line)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", source, lineNo, err)
			}
			matchers = append(matchers, m)
		default:
			return nil, fmt.Errorf("unsupported ignore syntax %d", syntax)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	if syntax == SyntaxGitignore && len(lines) > 0 {
		matchers = append(matchers, NewGitignoreMatcher(lines))
	}

	return matchers, nil
}

// RegexMatcher matches an unanchored regular expression against "./"+relPath.
type RegexMatcher struct {
	re *regexp.Regexp
}

// NewRegexMatcher compiles pattern.
func NewRegexMatcher(pattern string) (*RegexMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}

	return &RegexMatcher{re: re}, nil
}

// Matches reports whether the expression matches anywhere in the path.
func (m *RegexMatcher) Matches(relPath string, _ bool) bool {
	return m.re.MatchString("./" + relPath)
}

func (m *RegexMatcher) String() string {
	return "regex:" + m.re.String()
}

// GlobMatcher implements Matcher using doublestar glob patterns.
type GlobMatcher struct {
	pattern string
}

// NewGlobMatcher validates pattern. A leading "./" or "/" is dropped since
// subjects are root-relative.
func NewGlobMatcher(pattern string) (*GlobMatcher, error) {
	normalized := strings.TrimPrefix(strings.TrimPrefix(pattern, "./"), "/")
	if normalized == "" || !doublestar.ValidatePattern(normalized) {
		return nil, fmt.Errorf("%w %q: syntax error in pattern", ErrInvalidPattern, pattern)
	}

	return &GlobMatcher{pattern: normalized}, nil
}

// Matches returns true if the path matches the glob. A directory matched by
// the pattern also excludes everything below it.
func (m *GlobMatcher) Matches(relPath string, _ bool) bool {
	for candidate := relPath; candidate != ""; {
		if matched, _ := doublestar.Match(m.pattern, candidate); matched {
			return true
		}

		idx := strings.LastIndex(candidate, "/")
		if idx < 0 {
			break
		}
		candidate = candidate[:idx]
	}

	return false
}

func (m *GlobMatcher) String() string {
	return "glob:" + m.pattern
}

// GitignoreMatcher evaluates a whole .gitignore, including negations.
type GitignoreMatcher struct {
	ignorer *gitignore.GitIgnore
	lines   int
}

// NewGitignoreMatcher compiles .gitignore lines.
func NewGitignoreMatcher(lines []string) *GitignoreMatcher {
	return &GitignoreMatcher{
		ignorer: gitignore.CompileIgnoreLines(lines...),
		lines:   len(lines),
	}
}

// Matches reports whether git would ignore the path. Directories are matched
// with a trailing slash so that "build/" patterns exclude the directory
// itself, and an ignored ancestor excludes everything below it.
func (m *GitignoreMatcher) Matches(relPath string, dir bool) bool {
	subject := relPath
	if dir {
		subject += "/"
	}

	if m.ignorer.MatchesPath(subject) {
		return true
	}

	for parent := path.Dir(relPath); parent != "." && parent != "/"; parent = path.Dir(parent) {
		if m.ignorer.MatchesPath(parent + "/") {
			return true
		}
	}

	return false
}

func (m *GitignoreMatcher) String() string {
	return fmt.Sprintf("gitignore:%d lines", m.lines)
}
