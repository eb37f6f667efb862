package report

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Styles holds the lipgloss styles used for console output. Each style is
// bound to the renderer of the writer it is printed to.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Dim     lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	fd := f.Fd()

	return term.IsTerminal(int(fd)) || isatty.IsCygwinTerminal(fd) //nolint:gosec // File descriptors fit in int
}

// NewRenderer returns a lipgloss renderer for w. Colors are dropped when
// noColor is set, NO_COLOR is present in the environment or w is not a
// terminal.
func NewRenderer(w io.Writer, noColor bool) *lipgloss.Renderer {
	renderer := lipgloss.NewRenderer(w)

	if noColor || os.Getenv("NO_COLOR") != "" || !IsTerminal(w) {
		renderer.SetColorProfile(termenv.Ascii)
	}

	return renderer
}

// NewStyles builds the style set on renderer. Tabs are left alone so diffs
// of tab-indented files render verbatim.
func NewStyles(renderer *lipgloss.Renderer) Styles {
	base := renderer.NewStyle().TabWidth(lipgloss.NoTabConversion)

	return Styles{
		Title: base.
			Bold(true).
			Foreground(lipgloss.Color(primaryColorCode)),
		Label: base.
			Foreground(lipgloss.Color(highlightColorCode)).
			Bold(true),
		Dim: base.
			Foreground(lipgloss.Color(dimColorCode)),
		Success: base.
			Foreground(lipgloss.Color(successColorCode)).
			Bold(true),
		Warning: base.
			Foreground(lipgloss.Color(warningColorCode)).
			Bold(true),
		Error: base.
			Foreground(lipgloss.Color(errorColorCode)).
			Bold(true),
	}
}

// unexported constants.
const (
	dimColorCode       = "240" // Dark gray
	errorColorCode     = "196" // Red
	highlightColorCode = "86"  // Cyan
	primaryColorCode   = "205" // Pink/purple
	successColorCode   = "42"  // Green
	warningColorCode   = "214" // Orange
)
