package initengine

// Event is the interface implemented by all init engine events.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events.
type EventEmitter interface {
	Emit(event Event)
}

// Pass identifies one traversal over the tree.
type Pass string

// Passes, in the order the engine runs them.
const (
	PassStructural Pass = "structural"
	PassContent    Pass = "content"
)

// Pass events

// PassStarted is emitted before a traversal begins.
type PassStarted struct {
	Pass     Pass
	Simulate bool
}

func (PassStarted) isEvent() {}

// PassComplete is emitted when a traversal finishes without a fatal error.
type PassComplete struct {
	Pass    Pass
	Entries int // Entries in the snapshot, ignored ones included
	Changed int // Renames (structural) or rewritten files (content)
}

func (PassComplete) isEvent() {}

// Structural pass events

// RenamePlanned is emitted in dry-run mode instead of renaming.
type RenamePlanned struct {
	From  string
	To    string
	Token string
}

func (RenamePlanned) isEvent() {}

// RenameApplied is emitted after a successful physical rename.
type RenameApplied struct {
	From        string
	To          string
	Token       string
	Descendants int // Snapshot entries moved along with a directory
}

func (RenameApplied) isEvent() {}

// Content pass events

// ContentPlanned is emitted in dry-run mode for a file that would be
// rewritten. Token is the first rule that matched. Diff is a unified diff of
// the rewrite, set only when diffs were requested.
type ContentPlanned struct {
	Path  string
	Token string
	Diff  string
}

func (ContentPlanned) isEvent() {}

// ContentRewritten is emitted after a file's new content is written.
type ContentRewritten struct {
	Path        string
	Tokens      []string
	BytesBefore int
	BytesAfter  int
}

func (ContentRewritten) isEvent() {}

// FileSkipped is emitted when a file could not be read or written. The run
// continues.
type FileSkipped struct {
	Path string
	Err  error
}

func (FileSkipped) isEvent() {}

// Cleanup events

// ArtifactRemoved is emitted for each tool artifact removed after the run.
type ArtifactRemoved struct {
	Path string
}

func (ArtifactRemoved) isEvent() {}
