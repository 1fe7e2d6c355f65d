package gitlib

import (
	"fmt"
	"strings"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
)

// Commit wraps a libgit2 commit.
type Commit struct {
	commit *git2go.Commit
	repo   *Repository
}

// Hash returns the commit hash.
func (c *Commit) Hash() Hash {
	return HashFromOid(c.commit.Id())
}

// Author returns the commit author.
func (c *Commit) Author() Signature {
	return newSignature(c.commit.Author())
}

// Committer returns the commit committer.
func (c *Commit) Committer() Signature {
	return newSignature(c.commit.Committer())
}

// Message returns the commit message.
func (c *Commit) Message() string {
	return c.commit.Message()
}

// Subject returns the first line of the commit message.
func (c *Commit) Subject() string {
	subject, _, _ := strings.Cut(strings.TrimSpace(c.commit.Message()), "\n")

	return strings.TrimSpace(subject)
}

// ParentHashes returns the parent hashes in order.
func (c *Commit) ParentHashes() []Hash {
	count := c.commit.ParentCount()
	parents := make([]Hash, 0, count)

	for i := range count {
		parents = append(parents, HashFromOid(c.commit.ParentId(i)))
	}

	return parents
}

// Tree returns the tree associated with this commit.
func (c *Commit) Tree() (*Tree, error) {
	tree, err := c.commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get commit tree: %w", err)
	}

	return &Tree{tree: tree, repo: c.repo}, nil
}

// Attribution converts the commit into the immutable record kept in the store.
func (c *Commit) Attribution() *attribution.Commit {
	author := c.Author()
	committer := c.Committer()

	parents := c.ParentHashes()
	parentStrings := make([]string, len(parents))

	for i, p := range parents {
		parentStrings[i] = p.String()
	}

	return &attribution.Commit{
		Hash:           c.Hash().String(),
		Parents:        parentStrings,
		Author:         author.Name,
		AuthorEmail:    author.Email,
		AuthorTime:     author.When,
		Committer:      committer.Name,
		CommitterEmail: committer.Email,
		CommitterTime:  committer.When,
		Subject:        c.Subject(),
	}
}

// Free releases the commit resources.
func (c *Commit) Free() {
	if c.commit != nil {
		c.commit.Free()
		c.commit = nil
	}
}
