// Package report renders engine events, errors and the final layout for
// the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/joe/init-project/internal/initengine"
	"github.com/joe/init-project/pkg/errors"
)

// Console prints engine events as they arrive. It implements
// initengine.EventEmitter.
type Console struct {
	out    io.Writer
	styles Styles
	mu     sync.Mutex
}

// NewConsole creates a console writing to out.
func NewConsole(out io.Writer, noColor bool) *Console {
	return &Console{
		out:    out,
		styles: NewStyles(NewRenderer(out, noColor)),
	}
}

// Emit implements initengine.EventEmitter.
func (c *Console) Emit(event initengine.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := event.(type) {
	case initengine.PassStarted:
		c.passStarted(e)
	case initengine.RenamePlanned:
		c.printf("  %s ⇢ %s\n", e.From, e.To)
	case initengine.RenameApplied:
		c.printf("%s %s ⇢ %s\n", c.styles.Dim.Render("Renamed"), e.From, c.styles.Success.Render(e.To))
	case initengine.ContentPlanned:
		c.printf("(dry run) Applied RegEx changes to %s\n", e.Path)
		if e.Diff != "" {
			c.printf("%s", c.renderDiff(e.Diff))
		}
	case initengine.ContentRewritten:
		c.printf("Applied RegEx changes to %s\n", c.styles.Success.Render(e.Path))
	case initengine.FileSkipped:
		c.printf("%s %s: %v\n", c.styles.Warning.Render("Skipped"), e.Path, e.Err)
		if suggestions := errors.FormatSuggestions(e.Err); suggestions != "" {
			c.printf("%s\n", c.styles.Dim.Render(suggestions))
		}
	case initengine.ArtifactRemoved:
		c.printf("%s %s\n", c.styles.Dim.Render("Removed"), e.Path)
	case initengine.PassComplete:
		// Counts go to the summary
	}
}

// FormatError renders a fatal error with its suggestions.
func (c *Console) FormatError(err error) string {
	return FormatError(c.styles, err)
}

// Summary renders the success line printed after a run.
func (c *Console) Summary(projectID, projectName, execName string) string {
	return c.styles.Title.Render(fmt.Sprintf(
		"Initiated project with project id %s name %s and executable name %s",
		projectID, projectName, execName))
}

// Stats renders the counts of a finished run.
func (c *Console) Stats(result *initengine.Result) string {
	line := fmt.Sprintf("%d renamed, %d rewritten, %d removed", result.Renamed, result.Rewritten, len(result.Removed))
	if len(result.Skipped) > 0 {
		line += ", " + c.styles.Warning.Render(fmt.Sprintf("%d skipped", len(result.Skipped)))
	}

	return c.styles.Dim.Render(line)
}

// FormatError enriches err and renders it followed by a bulleted list of
// suggestions, if any.
func FormatError(styles Styles, err error) string {
	if err == nil {
		return ""
	}

	enriched := errors.NewEnricher().Enrich(err, "")

	var builder strings.Builder
	builder.WriteString(styles.Error.Render("Error:"))
	builder.WriteString(" ")
	builder.WriteString(enriched.Error())

	if suggestions := errors.FormatSuggestions(enriched); suggestions != "" {
		builder.WriteString("\n")
		builder.WriteString(styles.Label.Render("Suggestions:"))
		builder.WriteString("\n")
		builder.WriteString(suggestions)
	}

	return builder.String()
}

// passStarted prints the section headings. Real runs have none.
func (c *Console) passStarted(e initengine.PassStarted) {
	if !e.Simulate {
		return
	}

	switch e.Pass {
	case initengine.PassStructural:
		c.printf("Running in dry-run mode:\n")
		c.printf("%s\n", c.styles.Title.Render("= Move operations    ="))
	case initengine.PassContent:
		c.printf("\n%s\n\n", c.styles.Title.Render("= Replace operations ="))
	}
}

// renderDiff colors removed and added lines of a unified diff.
func (c *Console) renderDiff(diff string) string {
	lines := strings.SplitAfter(diff, "\n")

	var builder strings.Builder
	for _, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(body, "---"), strings.HasPrefix(body, "+++"):
			body = c.styles.Label.Render(body)
		case strings.HasPrefix(body, "@@"):
			body = c.styles.Dim.Render(body)
		case strings.HasPrefix(body, "-"):
			body = c.styles.Error.Render(body)
		case strings.HasPrefix(body, "+"):
			body = c.styles.Success.Render(body)
		}
		builder.WriteString(body)
		if strings.HasSuffix(line, "\n") {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
