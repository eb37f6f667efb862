// Package rules holds the ordered placeholder substitution rules applied to
// file names and file contents.
package rules

import (
	"fmt"
	"regexp"
)

// Placeholder tokens that every template carries.
const (
	TokenProjectID   = "__PROJID__"
	TokenProjectName = "<PROJ>"
	TokenExecName    = "<EXEC>"
)

// Rule is a compiled matcher and the literal text that replaces each match.
type Rule struct {
	Token       string
	Pattern     *regexp.Regexp
	Replacement string
}

// Compile builds a rule from a regular expression.
func Compile(pattern, replacement string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	return Rule{Token: pattern, Pattern: re, Replacement: replacement}, nil
}

// Literal builds a rule matching token verbatim.
func Literal(token, replacement string) Rule {
	return Rule{
		Token:       token,
		Pattern:     regexp.MustCompile(regexp.QuoteMeta(token)),
		Replacement: replacement,
	}
}

// Match reports whether the rule matches anywhere in s.
func (r Rule) Match(s string) bool {
	return r.Pattern.MatchString(s)
}

// MatchBytes reports whether the rule matches anywhere in b.
func (r Rule) MatchBytes(b []byte) bool {
	return r.Pattern.Match(b)
}

// Apply replaces every match in s. The replacement is not expanded, so a
// value containing '$' is written as is.
func (r Rule) Apply(s string) string {
	return r.Pattern.ReplaceAllLiteralString(s, r.Replacement)
}

// ApplyBytes replaces every match in b.
func (r Rule) ApplyBytes(b []byte) []byte {
	return r.Pattern.ReplaceAllLiteral(b, []byte(r.Replacement))
}

// Set is an ordered list of rules. Order is significant: a later rule sees
// the output of every earlier one.
type Set []Rule

// Placeholders returns the three fixed rules in their fixed order.
func Placeholders(projectID, projectName, execName string) Set {
	return Set{
		Literal(TokenProjectID, projectID),
		Literal(TokenProjectName, projectName),
		Literal(TokenExecName, execName),
	}
}

// With returns a copy of the set with extra rules appended.
func (s Set) With(extra ...Rule) Set {
	out := make(Set, 0, len(s)+len(extra))
	out = append(out, s...)
	return append(out, extra...)
}

// ApplyBytes runs every rule over b in order, each on the output of the
// previous one.
func (s Set) ApplyBytes(b []byte) []byte {
	for _, rule := range s {
		b = rule.ApplyBytes(b)
	}

	return b
}

// MatchesAny reports whether any rule matches s.
func (s Set) MatchesAny(subject string) bool {
	for _, rule := range s {
		if rule.Match(subject) {
			return true
		}
	}

	return false
}
