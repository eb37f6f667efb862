// Package tree captures a directory tree as an ordered snapshot of logical
// paths and drives a mutation action over it.
package tree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/joe/init-project/internal/logging"
	"github.com/joe/init-project/pkg/filesystem"
)

// Entry is one filesystem object in a snapshot. Its logical path is kept as
// segments relative to the snapshot root and is rewritten in place whenever
// the entry or one of its ancestors is renamed.
type Entry struct {
	Segments []string
	Kind     filesystem.EntryKind
}

// Name returns the final path component.
func (e *Entry) Name() string {
	if len(e.Segments) == 0 {
		return ""
	}
	return e.Segments[len(e.Segments)-1]
}

// RelPath returns the logical path in slash form, without a leading "./".
func (e *Entry) RelPath() string {
	return strings.Join(e.Segments, "/")
}

// IsDescendantOf reports whether e lies strictly below prefix.
func (e *Entry) IsDescendantOf(prefix []string) bool {
	return len(e.Segments) > len(prefix) && slices.Equal(e.Segments[:len(prefix)], prefix)
}

// Snapshot is the ordered set of entries below Root, captured before any
// mutation. Entries appear parents first.
type Snapshot struct {
	Root    string
	Entries []*Entry
}

// Build walks root and records every directory, regular file and symbolic
// link. Other kinds of entries are skipped. The root itself is not recorded.
func Build(fsys filesystem.FileSystem, root string) (*Snapshot, error) {
	logger := logging.GetLogger("tree")

	snap := &Snapshot{Root: root}

	scanner := fsys.Scan(root)
	for {
		info, ok := scanner.Next()
		if !ok {
			break
		}

		if info.Kind == filesystem.KindOther {
			logger.Debug().Str("path", info.RelativePath).Msg("Skipping special file")
			continue
		}

		snap.Entries = append(snap.Entries, &Entry{
			Segments: strings.Split(info.RelativePath, "/"),
			Kind:     info.Kind,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	logger.Debug().Str("root", root).Int("entries", len(snap.Entries)).Msg("Snapshot built")

	return snap, nil
}

// Path returns the location of a logical path on the backing filesystem.
func (s *Snapshot) Path(fsys filesystem.FileSystem, segments []string) string {
	return fsys.Join(append([]string{s.Root}, segments...)...)
}

// RenamePrefix rewrites every entry strictly below oldPrefix so that it sits
// below newPrefix with the same relative suffix. It returns the number of
// entries changed.
func (s *Snapshot) RenamePrefix(oldPrefix, newPrefix []string) int {
	oldPrefix = slices.Clone(oldPrefix)
	newPrefix = slices.Clone(newPrefix)

	changed := 0
	for _, e := range s.Entries {
		if !e.IsDescendantOf(oldPrefix) {
			continue
		}

		suffix := e.Segments[len(oldPrefix):]
		e.Segments = append(slices.Clone(newPrefix), suffix...)
		changed++
	}

	return changed
}

// Ignorer decides whether an entry is excluded from the action. dir is set
// for directory entries.
type Ignorer interface {
	ShouldIgnore(relPath string, dir bool) bool
}

// Action is applied to every entry that is not ignored.
type Action interface {
	OnEntry(entry *Entry, snap *Snapshot) error
}

// Traverse builds a fresh snapshot of root and calls action for each entry
// in order, skipping those ign excludes. Exclusion is evaluated on the
// entry's logical path at the moment it is reached. An action error stops
// the traversal. The snapshot is returned so callers can inspect the final
// logical layout.
func Traverse(fsys filesystem.FileSystem, root string, ign Ignorer, action Action) (*Snapshot, error) {
	logger := logging.GetLogger("tree")

	snap, err := Build(fsys, root)
	if err != nil {
		return nil, err
	}

	for _, entry := range snap.Entries {
		if ign != nil && ign.ShouldIgnore(entry.RelPath(), entry.Kind == filesystem.KindDir) {
			logger.Trace().Str("path", entry.RelPath()).Msg("Ignored")
			continue
		}

		if err := action.OnEntry(entry, snap); err != nil {
			return snap, err
		}
	}

	return snap, nil
}
