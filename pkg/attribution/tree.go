package attribution

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

const pathSeparator = "/"

// Tree lists one ID per tracked file of a commit. It is built once per
// commit and never changes afterwards.
type Tree struct {
	Commit string
	IDs    []ID
}

// FileKey addresses a file by path and content.
type FileKey struct {
	Path string
	Blob string
}

// Lookup indexes the tree by (path, blob), yielding the attributed commit.
func (t *Tree) Lookup() map[FileKey]string {
	index := make(map[FileKey]string, len(t.IDs))

	for _, id := range t.IDs {
		index[FileKey{Path: id.Path, Blob: id.Blob}] = id.Commit
	}

	return index
}

// Fresh returns the IDs that this tree's own commit introduced.
func (t *Tree) Fresh() []ID {
	fresh := make([]ID, 0, len(t.IDs))

	for _, id := range t.IDs {
		if id.Commit == t.Commit {
			fresh = append(fresh, id)
		}
	}

	return fresh
}

// node is one directory level of the persisted tree. Leaves carry the
// (commit, blob) pair of a file, so shared path prefixes are stored once.
type node struct {
	ID  []string         `json:"id,omitempty"`
	Sub map[string]*node `json:"sub,omitempty"`
}

func (n *node) insert(path string, id ID) {
	name, rest, nested := strings.Cut(path, pathSeparator)

	if n.Sub == nil {
		n.Sub = make(map[string]*node)
	}

	child, ok := n.Sub[name]
	if !ok {
		child = &node{}
		n.Sub[name] = child
	}

	if !nested {
		child.ID = []string{id.Commit, id.Blob}

		return
	}

	child.insert(rest, id)
}

func (n *node) flatten(prefix string, ids []ID) ([]ID, error) {
	if n.ID != nil {
		if len(n.ID) != 2 {
			return nil, fmt.Errorf("%w: leaf %q", ErrMalformedTree, prefix)
		}

		ids = append(ids, ID{Commit: n.ID[0], Blob: n.ID[1], Path: prefix})
	}

	var err error

	for name, child := range n.Sub {
		path := name
		if prefix != "" {
			path = prefix + pathSeparator + name
		}

		ids, err = child.flatten(path, ids)
		if err != nil {
			return nil, err
		}
	}

	return ids, nil
}

type treeJSON struct {
	Commit string `json:"commit"`
	Files  *node  `json:"files"`
}

// MarshalJSON encodes the tree as a nested directory trie.
func (t Tree) MarshalJSON() ([]byte, error) {
	root := &node{}

	for _, id := range t.IDs {
		root.insert(id.Path, id)
	}

	return json.Marshal(treeJSON{Commit: t.Commit, Files: root})
}

// UnmarshalJSON decodes the nested trie back into a path-sorted ID list.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw treeJSON

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("decode tree: %w", err)
	}

	t.Commit = raw.Commit
	t.IDs = nil

	if raw.Files == nil {
		return nil
	}

	ids, err := raw.Files.flatten("", nil)
	if err != nil {
		return err
	}

	sortByPath(ids)
	t.IDs = ids

	return nil
}

func sortByPath(ids []ID) {
	slices.SortFunc(ids, func(a, b ID) int {
		return strings.Compare(a.Path, b.Path)
	})
}
