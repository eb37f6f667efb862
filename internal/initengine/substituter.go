package initengine

import (
	"github.com/joe/init-project/internal/diff"
	"github.com/joe/init-project/internal/logging"
	"github.com/joe/init-project/internal/rules"
	"github.com/joe/init-project/internal/tree"
	"github.com/joe/init-project/pkg/errors"
	"github.com/joe/init-project/pkg/fileops"
	"github.com/joe/init-project/pkg/filesystem"
)

// Substituter is the content pass action. It rewrites regular files whose
// content matches at least one rule.
type Substituter struct {
	FS       filesystem.FileSystem
	Rules    rules.Set
	Simulate bool
	Diff     bool // With Simulate, attach a unified diff to ContentPlanned
	Emitter  EventEmitter

	ops       *fileops.FileOps
	enricher  errors.Enricher
	rewritten int
	skipped   []FileError
}

// FileError records a file the content pass could not process.
type FileError struct {
	FilePath string
	Error    error
}

// OnEntry reads the whole file, applies each matching rule in order and
// writes the result back. Read and write failures are reported and swallowed
// so the pass continues with the next entry.
func (s *Substituter) OnEntry(entry *tree.Entry, snap *tree.Snapshot) error {
	if entry.Kind != filesystem.KindFile {
		return nil
	}

	logger := logging.GetLogger("substituter")

	if s.ops == nil {
		s.ops = fileops.NewFileOps(s.FS)
	}

	display := displayPath(entry.Segments)
	path := snap.Path(s.FS, entry.Segments)

	content, err := s.ops.ReadFile(path)
	if err != nil {
		s.skip(display, err)
		return nil
	}

	var tokens []string
	updated := content

	for _, rule := range s.Rules {
		if !rule.MatchBytes(updated) {
			continue
		}

		if s.Simulate {
			planned := ContentPlanned{Path: display, Token: rule.Token}
			if s.Diff {
				planned.Diff = diff.Unified(display, content, s.Rules.ApplyBytes(content), 0)
			}
			emit(s.Emitter, planned)
			logger.Info().Str("path", display).Str("token", rule.Token).Msg("Would rewrite")
			s.rewritten++
			return nil
		}

		tokens = append(tokens, rule.Token)
		updated = rule.ApplyBytes(updated)
	}

	if len(tokens) == 0 {
		logger.Trace().Str("path", display).Msg("No placeholders")
		return nil
	}

	if err := s.ops.WriteFile(path, updated); err != nil {
		s.skip(display, err)
		return nil
	}

	emit(s.Emitter, ContentRewritten{
		Path:        display,
		Tokens:      tokens,
		BytesBefore: len(content),
		BytesAfter:  len(updated),
	})

	logger.Info().
		Str("path", display).
		Strs("tokens", tokens).
		Int("bytesBefore", len(content)).
		Int("bytesAfter", len(updated)).
		Msg("Rewrote")

	s.rewritten++

	return nil
}

// Rewritten returns the number of files rewritten, or that would be in a
// dry run.
func (s *Substituter) Rewritten() int {
	return s.rewritten
}

// Skipped returns the files that could not be processed.
func (s *Substituter) Skipped() []FileError {
	return s.skipped
}

func (s *Substituter) skip(display string, err error) {
	if s.enricher == nil {
		s.enricher = errors.NewEnricher()
	}

	enriched := s.enricher.Enrich(err, display)
	s.skipped = append(s.skipped, FileError{FilePath: display, Error: enriched})

	emit(s.Emitter, FileSkipped{Path: display, Err: enriched})

	logger := logging.GetLogger("substituter")
	logger.Warn().Err(err).Str("path", display).Msg("Skipping file")
}
