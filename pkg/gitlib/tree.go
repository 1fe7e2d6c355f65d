package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
)

// Tree wraps a libgit2 tree.
type Tree struct {
	tree *git2go.Tree
	repo *Repository
}

// Hash returns the tree hash.
func (t *Tree) Hash() Hash {
	return HashFromOid(t.tree.Id())
}

// EntryByPath returns the tree entry at the given path.
func (t *Tree) EntryByPath(path string) (*TreeEntry, error) {
	entry, err := t.tree.EntryByPath(path)
	if err != nil {
		return nil, fmt.Errorf("entry by path %s: %w", path, err)
	}

	return &TreeEntry{entry: entry}, nil
}

// Files lists every blob reachable from the tree with its full path.
// Submodule entries are not blobs and are skipped.
func (t *Tree) Files() ([]attribution.FileEntry, error) {
	var files []attribution.FileEntry

	err := walkTree(t.repo, t, "", func(path string, entry *TreeEntry) error {
		files = append(files, attribution.FileEntry{Path: path, Blob: entry.Hash().String()})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// Free releases the tree resources.
func (t *Tree) Free() {
	if t.tree != nil {
		t.tree.Free()
		t.tree = nil
	}
}

// TreeEntry wraps a libgit2 tree entry.
type TreeEntry struct {
	entry *git2go.TreeEntry
}

// Name returns the entry name.
func (e *TreeEntry) Name() string {
	return e.entry.Name
}

// Hash returns the entry object hash.
func (e *TreeEntry) Hash() Hash {
	return HashFromOid(e.entry.Id)
}

// IsBlob returns true if the entry is a blob.
func (e *TreeEntry) IsBlob() bool {
	return e.entry.Type == git2go.ObjectBlob
}

// IsTree returns true if the entry is a subtree.
func (e *TreeEntry) IsTree() bool {
	return e.entry.Type == git2go.ObjectTree
}

// walkTree recursively walks a tree and calls cb for each blob.
func walkTree(repo *Repository, tree *Tree, prefix string, cb func(path string, entry *TreeEntry) error) error {
	count := tree.tree.EntryCount()

	for i := range count {
		raw := tree.tree.EntryByIndex(i)
		if raw == nil {
			continue
		}

		err := processTreeEntry(repo, &TreeEntry{entry: raw}, prefix, cb)
		if err != nil {
			return err
		}
	}

	return nil
}

// processTreeEntry calls cb for blobs and recurses into subtrees.
func processTreeEntry(repo *Repository, entry *TreeEntry, prefix string, cb func(path string, entry *TreeEntry) error) error {
	path := entry.Name()
	if prefix != "" {
		path = prefix + "/" + path
	}

	if entry.IsBlob() {
		return cb(path, entry)
	}

	if !entry.IsTree() {
		return nil
	}

	subtree, err := repo.LookupTree(entry.Hash())
	if err != nil {
		return err
	}
	defer subtree.Free()

	return walkTree(repo, subtree, path, cb)
}
