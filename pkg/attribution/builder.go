package attribution

import (
	"errors"
	"fmt"
)

// Sentinel errors for tree construction and decoding.
var (
	ErrParentTreeMissing = errors.New("parent tree missing")
	ErrMalformedTree     = errors.New("malformed tree")
)

// TreeStats counts how the IDs of a freshly built tree were decided.
type TreeStats struct {
	Inherited int
	Fresh     int
}

// BuildTree decides, for every file of commit, which commit its authorship
// is attributed to. parents must hold the trees of commit.Parents in the
// same order.
//
// A file inherits its attribution only when every parent tracks the same
// (path, blob) and all of them agree on the attributed commit. Anything
// else, including root commits, is attributed to commit itself and must be
// recomputed.
func BuildTree(commit *Commit, files []FileEntry, parents []*Tree) (*Tree, TreeStats, error) {
	if len(parents) != len(commit.Parents) {
		return nil, TreeStats{}, fmt.Errorf("%w: commit %s has %d parents, got %d trees",
			ErrParentTreeMissing, commit.Hash, len(commit.Parents), len(parents))
	}

	lookups := make([]map[FileKey]string, len(parents))

	for i, parent := range parents {
		if parent == nil {
			return nil, TreeStats{}, fmt.Errorf("%w: %s", ErrParentTreeMissing, commit.Parents[i])
		}

		lookups[i] = parent.Lookup()
	}

	tree := &Tree{Commit: commit.Hash, IDs: make([]ID, 0, len(files))}

	var stats TreeStats

	for _, file := range files {
		origin, inherited := inheritedOrigin(lookups, FileKey(file))
		if !inherited {
			origin = commit.Hash
			stats.Fresh++
		} else {
			stats.Inherited++
		}

		tree.IDs = append(tree.IDs, ID{Commit: origin, Blob: file.Blob, Path: file.Path})
	}

	sortByPath(tree.IDs)

	return tree, stats, nil
}

func inheritedOrigin(lookups []map[FileKey]string, key FileKey) (string, bool) {
	if len(lookups) == 0 {
		return "", false
	}

	origin, ok := lookups[0][key]
	if !ok {
		return "", false
	}

	for _, lookup := range lookups[1:] {
		other, found := lookup[key]
		if !found || other != origin {
			return "", false
		}
	}

	return origin, true
}
