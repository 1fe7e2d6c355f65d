// Package attribution holds the authorship data model and the rule that
// decides, per file, whether a commit inherits authorship from its parents
// or has to recompute it.
package attribution

import "time"

// HashHexSize is the length of a hex-encoded object id (commit or blob).
const HashHexSize = 40

// Commit is an immutable commit record as produced by the history provider.
type Commit struct {
	Hash           string    `json:"hash"`
	Parents        []string  `json:"parents,omitempty"`
	Author         string    `json:"author"`
	AuthorEmail    string    `json:"author_email"`
	AuthorTime     time.Time `json:"author_time"`
	Committer      string    `json:"committer"`
	CommitterEmail string    `json:"committer_email"`
	CommitterTime  time.Time `json:"committer_time"`
	Subject        string    `json:"subject,omitempty"`
}

// IsRoot reports whether the commit has no parents.
func (c *Commit) IsRoot() bool {
	return len(c.Parents) == 0
}

// FileEntry is one tracked file of a commit's tree snapshot.
type FileEntry struct {
	Path string
	Blob string
}
