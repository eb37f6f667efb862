package report

import (
	"strings"

	"github.com/disiqueira/gotree/v3"

	"github.com/joe/init-project/internal/tree"
	"github.com/joe/init-project/pkg/filesystem"
)

// RenderTree draws the entries of snap under rootLabel. Entries ign
// ignores are left out, along with everything below them. Directories are
// labelled with a trailing slash.
func RenderTree(snap *tree.Snapshot, ign tree.Ignorer, rootLabel string) string {
	root := gotree.New(rootLabel)
	if snap == nil {
		return root.Print()
	}

	dirs := map[string]gotree.Tree{"": root}

	for _, entry := range snap.Entries {
		if len(entry.Segments) == 0 {
			continue
		}

		rel := entry.RelPath()
		if ign != nil && ign.ShouldIgnore(rel, entry.Kind == filesystem.KindDir) {
			continue
		}

		parent, ok := dirs[strings.Join(entry.Segments[:len(entry.Segments)-1], "/")]
		if !ok {
			continue
		}

		label := entry.Name()
		if entry.Kind == filesystem.KindDir {
			label += "/"
		}

		node := parent.Add(label)
		if entry.Kind == filesystem.KindDir {
			dirs[rel] = node
		}
	}

	return root.Print()
}
