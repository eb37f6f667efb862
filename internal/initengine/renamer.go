package initengine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/joe/init-project/internal/logging"
	"github.com/joe/init-project/internal/rules"
	"github.com/joe/init-project/internal/tree"
	"github.com/joe/init-project/pkg/filesystem"
)

// Renamer is the structural pass action. It renames entries whose final
// name component matches a rule and keeps the snapshot's logical paths in
// step with every rename.
type Renamer struct {
	FS       filesystem.FileSystem
	Rules    rules.Set
	Simulate bool
	Emitter  EventEmitter

	renamed int
}

// OnEntry tries every rule in order against the entry's current name. A rule
// sees the name as left by the rules before it.
func (r *Renamer) OnEntry(entry *tree.Entry, snap *tree.Snapshot) error {
	logger := logging.GetLogger("renamer")

	for _, rule := range r.Rules {
		name := entry.Name()
		if !rule.Match(name) {
			continue
		}

		newName := rule.Apply(name)
		if newName == name {
			continue
		}

		oldSegments := slices.Clone(entry.Segments)
		newSegments := append(slices.Clone(oldSegments[:len(oldSegments)-1]), newName)
		from, to := displayPath(oldSegments), displayPath(newSegments)

		if newName == "" || newName == "." || newName == ".." || strings.ContainsAny(newName, `/\`) {
			return fmt.Errorf("%w: %s ⇢ %s: invalid name %q", ErrRenameFailed, from, to, newName)
		}

		if r.Simulate {
			emit(r.Emitter, RenamePlanned{From: from, To: to, Token: rule.Token})
		} else {
			err := r.FS.Rename(snap.Path(r.FS, oldSegments), snap.Path(r.FS, newSegments))
			if err != nil {
				return fmt.Errorf("%w: %s ⇢ %s: %w", ErrRenameFailed, from, to, err)
			}
		}

		entry.Segments = newSegments

		// A simulated entry is treated as a possible directory; a file has no
		// descendants in the snapshot so this is a no-op for files.
		descendants := 0
		if entry.Kind == filesystem.KindDir || r.Simulate {
			descendants = snap.RenamePrefix(oldSegments, newSegments)
		}

		if !r.Simulate {
			emit(r.Emitter, RenameApplied{From: from, To: to, Token: rule.Token, Descendants: descendants})
		}

		logger.Info().
			Str("from", from).
			Str("to", to).
			Str("token", rule.Token).
			Int("descendants", descendants).
			Bool("simulate", r.Simulate).
			Msg("Renamed")

		r.renamed++
	}

	return nil
}

// Renamed returns the number of renames applied or planned so far.
func (r *Renamer) Renamed() int {
	return r.renamed
}
