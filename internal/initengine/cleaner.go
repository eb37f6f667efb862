package initengine

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joe/init-project/internal/logging"
	"github.com/joe/init-project/pkg/filesystem"
)

// Cleaner removes the tool's own artifacts from the root once the template
// has been instantiated.
type Cleaner struct {
	FS        filesystem.FileSystem
	Root      string
	Artifacts []string
	Emitter   EventEmitter
}

// Clean removes each artifact and everything below it. Artifacts that do not
// exist are skipped. It returns the artifacts actually removed.
func (c *Cleaner) Clean() ([]string, error) {
	logger := logging.GetLogger("cleaner")

	var removed []string

	for _, artifact := range c.Artifacts {
		path := c.FS.Join(c.Root, artifact)

		if _, err := c.FS.Lstat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug().Str("artifact", artifact).Msg("Artifact not present")
				continue
			}
			return removed, fmt.Errorf("%w: %s: %w", ErrCleanupFailed, artifact, err)
		}

		if err := c.FS.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("%w: %s: %w", ErrCleanupFailed, artifact, err)
		}

		removed = append(removed, artifact)
		emit(c.Emitter, ArtifactRemoved{Path: "./" + artifact})
		logger.Info().Str("artifact", artifact).Msg("Removed artifact")
	}

	return removed, nil
}
