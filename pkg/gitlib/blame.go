package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// Blame attributes every line of path, as of the commit newest, to the
// commit that introduced it. The result maps commit hashes to line counts.
// Binary or undecodable files yield ErrBinary.
func (r *Repository) Blame(newest Hash, path string) (map[string]uint64, error) {
	commit, err := r.LookupCommit(newest)
	if err != nil {
		return nil, err
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	defer tree.Free()

	entry, err := tree.EntryByPath(path)
	if err != nil {
		return nil, err
	}

	blob, err := r.LookupBlob(entry.Hash())
	if err != nil {
		return nil, err
	}

	binary := blob.IsBinary()
	blob.Free()

	if binary {
		return nil, fmt.Errorf("blame %s@%s: %w", path, newest, ErrBinary)
	}

	opts, err := git2go.DefaultBlameOptions()
	if err != nil {
		return nil, fmt.Errorf("blame options: %w", err)
	}

	opts.NewestCommit = newest.ToOid()

	blame, err := r.repo.BlameFile(path, &opts)
	if err != nil {
		return nil, fmt.Errorf("blame %s@%s: %w", path, newest, err)
	}
	defer blame.Free()

	lines := make(map[string]uint64)

	for i := range blame.HunkCount() {
		hunk, hunkErr := blame.HunkByIndex(i)
		if hunkErr != nil {
			return nil, fmt.Errorf("blame %s@%s hunk %d: %w", path, newest, i, hunkErr)
		}

		lines[HashFromOid(hunk.FinalCommitId).String()] += uint64(hunk.LinesInHunk)
	}

	return lines, nil
}
