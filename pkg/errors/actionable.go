// Package errors provides actionable error handling with context-aware suggestions.
//
// This package enriches standard Go errors with categorization and actionable suggestions
// to help users resolve issues quickly. It detects error types (permission,
// rename collision, bad pattern, missing path, unreachable remote root, etc.) and provides specific guidance
// based on the error category.
//
// Basic Usage:
//
//	enricher := errors.NewEnricher()
//	err := fsys.Rename("<PROJ>", "alpha")
//	if err != nil {
//	    err = enricher.Enrich(err, "<PROJ>")
//	    fmt.Println(err.Error())
//	    fmt.Println(errors.FormatSuggestions(err))
//	}
//
// The enricher automatically extracts paths from error messages when not explicitly provided:
//
//	err := errors.New("open /home/user/file.txt: permission denied")
//	enriched := enricher.Enrich(err, "") // Path will be extracted from error message
//
// Enriched errors keep the original error in their chain, so errors.Is and
// errors.As still see sentinel values wrapped by the caller.
package errors

import "strings"

// Exported constants.
const (
	CategoryCollision  ErrorCategory = "collision"
	CategoryDiskSpace  ErrorCategory = "disk_space"
	CategoryPath       ErrorCategory = "path"
	CategoryPattern    ErrorCategory = "pattern"
	CategoryPermission ErrorCategory = "permission"
	CategoryRemote     ErrorCategory = "remote"
	CategoryUnknown    ErrorCategory = "unknown"
)

// ActionableError represents an error with actionable suggestions for the user.
type ActionableError interface {
	error
	OriginalError() string
	Category() ErrorCategory
	Suggestions() []string
	AffectedPath() string
}

// NewActionableError creates a new ActionableError with the given details.
func NewActionableError(
	originalError string,
	category ErrorCategory,
	suggestions []string,
	affectedPath string,
) ActionableError {
	return &actionableError{
		originalError: originalError,
		category:      category,
		suggestions:   suggestions,
		affectedPath:  affectedPath,
	}
}

// ErrorCategory represents the type of error that occurred.
type ErrorCategory string

// FormatSuggestions formats the suggestions from an ActionableError as a bulleted list
// for display. Returns empty string if the error is nil or has no suggestions.
func FormatSuggestions(err error) string {
	if err == nil {
		return ""
	}

	actionable, ok := err.(ActionableError)
	if !ok {
		return ""
	}

	suggestions := actionable.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}

	// Format as bulleted list with two-space indent
	var builder strings.Builder
	for i, suggestion := range suggestions {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("  • ")
		builder.WriteString(suggestion)
	}

	return builder.String()
}

// actionableError is the concrete implementation of ActionableError.
type actionableError struct {
	originalError string
	category      ErrorCategory
	suggestions   []string
	affectedPath  string
	cause         error
}

// AffectedPath returns the file path affected by this error.
func (e *actionableError) AffectedPath() string {
	return e.affectedPath
}

// Category returns the error category.
func (e *actionableError) Category() ErrorCategory {
	return e.category
}

// Error implements the error interface.
func (e *actionableError) Error() string {
	return e.originalError
}

// OriginalError returns the original error message.
func (e *actionableError) OriginalError() string {
	return e.originalError
}

// Suggestions returns the list of actionable suggestions.
func (e *actionableError) Suggestions() []string {
	return e.suggestions
}

// Unwrap returns the enriched error, if any.
func (e *actionableError) Unwrap() error {
	return e.cause
}
