// Package ignore decides which tracked paths are left out of authorship
// statistics, using gitignore pattern syntax.
package ignore

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const pathSeparator = "/"

// Matcher reports whether a repository path is ignored.
type Matcher struct {
	matcher  gitignore.Matcher
	patterns int
}

// New compiles patterns. Later patterns take precedence, and "!" negates,
// exactly as in a .gitignore file.
func New(patterns []string) *Matcher {
	compiled := make([]gitignore.Pattern, 0, len(patterns))

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}

		compiled = append(compiled, gitignore.ParsePattern(p, nil))
	}

	return &Matcher{matcher: gitignore.NewMatcher(compiled), patterns: len(compiled)}
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}

	return m.patterns
}

// Match reports whether path, or any directory containing it, is ignored.
// A nil Matcher ignores nothing.
func (m *Matcher) Match(path string) bool {
	if m == nil || m.patterns == 0 {
		return false
	}

	parts := strings.Split(path, pathSeparator)

	if m.matcher.Match(parts, false) {
		return true
	}

	for i := len(parts) - 1; i > 0; i-- {
		if m.matcher.Match(parts[:i], true) {
			return true
		}
	}

	return false
}
