package errors

import "strings"

// PatternMatcher matches error messages to categories using string patterns.
type PatternMatcher interface {
	Match(errorMsg string) ErrorCategory
}

// categoryPatterns pairs a category with the message fragments that select it.
type categoryPatterns struct {
	category ErrorCategory
	patterns []string
}

// NewPatternMatcher creates a new PatternMatcher with predefined patterns.
// Categories are tried in order; a rename onto an existing directory reports
// both "file exists" and a path, and must land on collision.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		categories: []categoryPatterns{
			{CategoryPattern, []string{
				"error parsing regexp",
				"syntax error in pattern",
				"invalid pattern",
			}},
			{CategoryCollision, []string{
				"destination already exists",
				"file exists",
				"directory not empty",
			}},
			{CategoryRemote, []string{
				"ssh connection",
				"no ssh authentication",
				"unable to authenticate",
				"unusable identity file",
				"known hosts",
				"knownhosts",
				"sftp session",
			}},
			{CategoryPermission, []string{
				"permission denied",
				"access denied",
				"operation not permitted",
				"read-only file system",
			}},
			{CategoryDiskSpace, []string{
				"no space left on device",
				"disk full",
				"quota exceeded",
			}},
			{CategoryPath, []string{
				"no such file or directory",
				"file not found",
				"file does not exist",
				"path does not exist",
			}},
		},
	}
}

// patternMatcher is the concrete implementation of PatternMatcher.
type patternMatcher struct {
	categories []categoryPatterns
}

// Match returns the error category based on pattern matching.
func (m *patternMatcher) Match(errorMsg string) ErrorCategory {
	lowerMsg := strings.ToLower(errorMsg)

	for _, entry := range m.categories {
		for _, pattern := range entry.patterns {
			if strings.Contains(lowerMsg, pattern) {
				return entry.category
			}
		}
	}

	// No match found
	return CategoryUnknown
}
