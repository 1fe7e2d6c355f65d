// Package identity canonicalizes author identities through a user-supplied
// alias map.
package identity

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const renameSeparator = "="

// Sentinel errors for alias configuration.
var (
	ErrAliasCycle    = errors.New("author alias cycle")
	ErrInvalidRename = errors.New("invalid rename")
)

// Aliases maps an identity (an email, or a name when bucketing by name) to
// the identity it should be reported as. Chains are followed, so a->b and
// b->c resolve a to c.
type Aliases struct {
	next map[string]string
}

// New creates an empty alias map.
func New() *Aliases {
	return &Aliases{next: make(map[string]string)}
}

// Set maps from to to, replacing any earlier mapping of from.
func (a *Aliases) Set(from, to string) {
	a.next[from] = to
}

// Merge adds every mapping of m. Later merges override earlier ones.
func (a *Aliases) Merge(m map[string]string) {
	maps.Copy(a.next, m)
}

// Len returns the number of mappings.
func (a *Aliases) Len() int {
	return len(a.next)
}

// Resolve follows the alias chain of identity to its end. Unmapped
// identities are returned unchanged. On an unvalidated map with a cycle
// the walk stops after visiting every mapping once.
func (a *Aliases) Resolve(identity string) string {
	current := identity

	for range len(a.next) {
		target, ok := a.next[current]
		if !ok {
			return current
		}

		current = target
	}

	return current
}

// Validate walks every chain and fails with ErrAliasCycle if one of them
// loops, naming an identity on the loop.
func (a *Aliases) Validate() error {
	done := make(map[string]bool, len(a.next))

	for _, start := range slices.Sorted(maps.Keys(a.next)) {
		if done[start] {
			continue
		}

		visited := map[string]bool{start: true}
		current := start

		for {
			target, ok := a.next[current]
			if !ok || done[target] {
				break
			}

			if visited[target] {
				return fmt.Errorf("%w: author loop detected containing %s", ErrAliasCycle, target)
			}

			visited[target] = true
			current = target
		}

		for identity := range visited {
			done[identity] = true
		}
	}

	return nil
}

// ParseRename splits an "old=new" rename flag value.
func ParseRename(value string) (from, to string, err error) {
	from, to, ok := strings.Cut(value, renameSeparator)
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)

	if !ok || from == "" || to == "" {
		return "", "", fmt.Errorf("%w: %q, want old=new", ErrInvalidRename, value)
	}

	return from, to, nil
}

// LoadFile reads a YAML mapping of identity to identity.
func LoadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aliases file: %w", err)
	}

	var m map[string]string

	err = yaml.Unmarshal(data, &m)
	if err != nil {
		return nil, fmt.Errorf("parse aliases file %s: %w", path, err)
	}

	return m, nil
}

// Build merges the alias sources in increasing precedence: the config map,
// then each aliases file, then rename flags. The result is validated.
func Build(config map[string]string, files, renames []string) (*Aliases, error) {
	aliases := New()
	aliases.Merge(config)

	for _, path := range files {
		m, err := LoadFile(path)
		if err != nil {
			return nil, err
		}

		aliases.Merge(m)
	}

	for _, rename := range renames {
		from, to, err := ParseRename(rename)
		if err != nil {
			return nil, err
		}

		aliases.Set(from, to)
	}

	err := aliases.Validate()
	if err != nil {
		return nil, err
	}

	return aliases, nil
}
