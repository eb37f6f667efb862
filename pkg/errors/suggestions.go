package errors

import "fmt"

// SuggestionGenerator generates actionable suggestions based on error category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates a new SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

// suggestionGenerator is the concrete implementation of SuggestionGenerator.
type suggestionGenerator struct{}

// Generate returns actionable suggestions based on the error category and affected path.
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	switch category {
	case CategoryPermission:
		return g.generatePermissionSuggestions(affectedPath)
	case CategoryDiskSpace:
		return g.generateDiskSpaceSuggestions(affectedPath)
	case CategoryPath:
		return g.generatePathSuggestions(affectedPath)
	case CategoryCollision:
		return g.generateCollisionSuggestions(affectedPath)
	case CategoryPattern:
		return g.generatePatternSuggestions(affectedPath)
	case CategoryRemote:
		return g.generateRemoteSuggestions(affectedPath)
	case CategoryUnknown:
		return g.generateUnknownSuggestions(affectedPath)
	default:
		return g.generateUnknownSuggestions(affectedPath)
	}
}

func (g *suggestionGenerator) generateCollisionSuggestions(path string) []string {
	suggestions := []string{
		"A file or directory with the substituted name already exists",
		"Renames already applied are not rolled back; inspect the tree with 'git status'",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Remove or rename the conflicting entry next to %s", path))
	}

	suggestions = append(suggestions, "Run again with --dry-run to preview every rename first")

	return suggestions
}

func (g *suggestionGenerator) generateDiskSpaceSuggestions(path string) []string {
	suggestions := []string{
		"Free up space on the device holding the project",
		"Check available space with 'df -h'",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify disk usage for the filesystem containing "+path)
	}

	return suggestions
}

func (g *suggestionGenerator) generatePathSuggestions(path string) []string {
	suggestions := []string{
		"Run the tool from the root of the project checkout",
		"Ensure the directory has a .git directory and a .gitignore file",
	}

	if path != "" {
		suggestions = append(suggestions, "Check if the path exists: "+path)
	}

	return suggestions
}

func (g *suggestionGenerator) generatePatternSuggestions(path string) []string {
	suggestions := []string{
		"Ignore-file lines are regular expressions by default",
		"Use --ignore-syntax=gitignore for a conventional .gitignore, or --ignore-syntax=glob",
	}

	if path != "" {
		suggestions = append(suggestions, "Fix or remove the offending line in "+path)
	}

	return suggestions
}

func (g *suggestionGenerator) generatePermissionSuggestions(path string) []string {
	suggestions := []string{
		"Ensure you have read/write permissions for the files and directories",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Check permissions with 'ls -la %s'", path))
	} else {
		suggestions = append(suggestions, "Check permissions with 'ls -la' on the affected path")
	}

	return suggestions
}

func (g *suggestionGenerator) generateRemoteSuggestions(path string) []string {
	suggestions := []string{
		"Check that the host is reachable with 'ssh user@host'",
		"Pass a private key with -i, or load one into ssh-agent",
		"Add the host to known_hosts, or point --known-hosts at the right file",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify the remote root exists: "+path)
	}

	return suggestions
}

func (g *suggestionGenerator) generateUnknownSuggestions(path string) []string {
	suggestions := []string{
		"Check the error message for more details",
		"Run again with -v for debug logging",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify the path is accessible: "+path)
	}

	return suggestions
}
