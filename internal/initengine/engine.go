// Package initengine instantiates a project template in place: a structural
// pass renames entries whose names carry placeholder tokens and a content
// pass rewrites the placeholders inside files.
package initengine

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joe/init-project/internal/ignore"
	"github.com/joe/init-project/internal/logging"
	"github.com/joe/init-project/internal/rules"
	"github.com/joe/init-project/internal/tree"
	"github.com/joe/init-project/pkg/filesystem"
)

// Exported constants.
const (
	// IgnoreFile is the ignore-rules file that must exist in the root
	IgnoreFile = ".gitignore"
	// VCSDir is the version control marker that must exist in the root
	VCSDir = ".git"
)

// Exported variables.
var (
	ErrCleanupFailed  = errors.New("cleanup failed")
	ErrInvalidPattern = ignore.ErrInvalidPattern
	ErrMissingMarker  = errors.New("missing root marker")
	ErrRenameFailed   = errors.New("rename failed")
)

// Engine runs the structural pass, the content pass and the optional
// cleanup over one root.
type Engine struct {
	Root         string
	FS           filesystem.FileSystem
	Rules        rules.Set
	Simulate     bool            // Dry run: report, mutate nothing
	Diff         bool            // Dry run: include unified diffs in ContentPlanned
	Cleanup      bool            // Remove Artifacts after a real run
	Artifacts    []string        // Tool artifacts, relative to Root
	Protected    []string        // Excluded from both passes but never removed, relative to Root
	Excludes     []string        // Extra glob excludes
	IgnoreSyntax ignore.Syntax   // How IgnoreFile lines are read
	TimeProvider TimeProvider    // Time provider (for dependency injection)
	emitter      EventEmitter    // Event emitter for console output (optional)
	closeFunc    func()          // Function to close SFTP connections (if any)
	ignoreSet    *ignore.RuleSet // Built on first use
}

// Result summarises a run.
type Result struct {
	Renamed   int
	Rewritten int
	Skipped   []FileError
	Removed   []string
	Snapshot  *tree.Snapshot // Logical layout after the structural pass
	Duration  time.Duration
}

// NewEngine creates an engine for root.
// Supports both local paths and SFTP URLs (sftp://user@host:port/path).
func NewEngine(root string) (*Engine, error) {
	return NewEngineWithRemote(root, filesystem.RemoteOptions{})
}

// NewEngineWithRemote is NewEngine with explicit settings for reaching an
// sftp:// root. They are ignored for local roots.
func NewEngineWithRemote(root string, remote filesystem.RemoteOptions) (*Engine, error) {
	fsys, basePath, closer, err := filesystem.CreateFileSystem(root, remote)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem: %w", err)
	}

	engine := NewEngineWithFS(fsys, basePath)
	engine.closeFunc = closer

	return engine, nil
}

// NewEngineWithFS creates an engine over an existing filesystem.
func NewEngineWithFS(fsys filesystem.FileSystem, root string) *Engine {
	return &Engine{
		Root:         root,
		FS:           fsys,
		Cleanup:      true,
		TimeProvider: &RealTimeProvider{},
	}
}

// SetEventEmitter sets the event emitter.
// The emitter is optional - if nil, no events will be emitted.
func (e *Engine) SetEventEmitter(emitter EventEmitter) {
	e.emitter = emitter
}

// GetEventEmitter returns the current event emitter.
func (e *Engine) GetEventEmitter() EventEmitter {
	return e.emitter
}

// Close cleans up resources, including SFTP connections if any.
func (e *Engine) Close() {
	if e.closeFunc != nil {
		e.closeFunc()
	}
}

// ValidateRoot checks that the root holds both the VCS directory and the
// ignore file.
func (e *Engine) ValidateRoot() error {
	for _, marker := range []string{VCSDir, IgnoreFile} {
		if _, err := e.FS.Lstat(e.FS.Join(e.Root, marker)); err != nil {
			return fmt.Errorf("%w %s in %s: %w", ErrMissingMarker, marker, e.Root, err)
		}
	}

	return nil
}

// IgnoreRules builds the ignore rule set: the built-in rules, then the extra
// excludes, then the lines of the ignore file.
func (e *Engine) IgnoreRules() (*ignore.RuleSet, error) {
	if e.ignoreSet != nil {
		return e.ignoreSet, nil
	}

	matchers := ignore.Builtin(VCSDir, IgnoreFile, append(slices.Clone(e.Artifacts), e.Protected...))

	for _, pattern := range e.Excludes {
		m, err := ignore.NewGlobMatcher(pattern)
		if err != nil {
			return nil, fmt.Errorf("exclude: %w", err)
		}
		matchers = append(matchers, m)
	}

	loaded, err := ignore.Load(e.FS, e.FS.Join(e.Root, IgnoreFile), e.IgnoreSyntax)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore rules: %w", err)
	}

	e.ignoreSet = ignore.NewRuleSet(append(matchers, loaded...)...)

	logger := logging.GetLogger("engine")
	logger.Debug().
		Int("rules", e.ignoreSet.Len()).
		Str("syntax", e.IgnoreSyntax.String()).
		Msg("Ignore rules loaded")

	return e.ignoreSet, nil
}

// Run validates the root and runs both passes followed by the cleanup.
// Configuration errors are returned before anything is touched. A failed
// rename stops the run; renames already applied stay applied.
func (e *Engine) Run() (*Result, error) {
	logger := logging.GetLogger("engine")
	start := e.now()

	if err := e.ValidateRoot(); err != nil {
		return nil, err
	}

	ignoreSet, err := e.IgnoreRules()
	if err != nil {
		return nil, err
	}

	result := &Result{}

	if err := e.RunStructuralPass(ignoreSet, result); err != nil {
		return result, err
	}

	if err := e.RunContentPass(ignoreSet, result); err != nil {
		return result, err
	}

	if e.Cleanup && !e.Simulate {
		cleaner := &Cleaner{FS: e.FS, Root: e.Root, Artifacts: e.Artifacts, Emitter: e.emitter}

		result.Removed, err = cleaner.Clean()
		if err != nil {
			return result, err
		}
	}

	result.Duration = e.now().Sub(start)

	logger.Info().
		Int("renamed", result.Renamed).
		Int("rewritten", result.Rewritten).
		Int("skipped", len(result.Skipped)).
		Int("removed", len(result.Removed)).
		Dur("duration", result.Duration).
		Bool("simulate", e.Simulate).
		Msg("Run complete")

	return result, nil
}

// RunStructuralPass renames entries over a fresh snapshot of the root.
func (e *Engine) RunStructuralPass(ign tree.Ignorer, result *Result) error {
	done := logging.LogOperationStart(logging.GetLogger("engine"), "structural pass")
	defer done()

	e.emit(PassStarted{Pass: PassStructural, Simulate: e.Simulate})

	renamer := &Renamer{FS: e.FS, Rules: e.Rules, Simulate: e.Simulate, Emitter: e.emitter}

	snap, err := tree.Traverse(e.FS, e.Root, ign, renamer)
	result.Renamed = renamer.Renamed()
	result.Snapshot = snap

	if err != nil {
		return err
	}

	e.emit(PassComplete{Pass: PassStructural, Entries: len(snap.Entries), Changed: renamer.Renamed()})

	return nil
}

// RunContentPass rewrites placeholders inside files over a fresh snapshot,
// so it sees the names the structural pass left on disk.
func (e *Engine) RunContentPass(ign tree.Ignorer, result *Result) error {
	done := logging.LogOperationStart(logging.GetLogger("engine"), "content pass")
	defer done()

	e.emit(PassStarted{Pass: PassContent, Simulate: e.Simulate})

	substituter := &Substituter{FS: e.FS, Rules: e.Rules, Simulate: e.Simulate, Diff: e.Diff, Emitter: e.emitter}

	snap, err := tree.Traverse(e.FS, e.Root, ign, substituter)
	result.Rewritten = substituter.Rewritten()
	result.Skipped = substituter.Skipped()

	if err != nil {
		return err
	}

	e.emit(PassComplete{Pass: PassContent, Entries: len(snap.Entries), Changed: substituter.Rewritten()})

	return nil
}

// emit sends an event if an emitter is configured.
// Safe to call even when emitter is nil.
func (e *Engine) emit(event Event) {
	emit(e.emitter, event)
}

func (e *Engine) now() time.Time {
	if e.TimeProvider == nil {
		return time.Now()
	}
	return e.TimeProvider.Now()
}

func emit(emitter EventEmitter, event Event) {
	if emitter != nil {
		emitter.Emit(event)
	}
}

// displayPath renders a logical path the way it is shown to the user.
func displayPath(segments []string) string {
	return "./" + strings.Join(segments, "/")
}
