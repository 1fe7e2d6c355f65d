package attribution

import (
	"crypto/sha256"
	"encoding/hex"
)

// ID identifies the authorship of the file at Path, whose content is Blob,
// as attributed to Commit. Equal IDs always describe the same authorship,
// which is what lets many commits share one record.
type ID struct {
	Commit string `json:"commit"`
	Blob   string `json:"blob"`
	Path   string `json:"path"`
}

// Digest returns the hex SHA-256 of commit, blob and path concatenated in
// that order. Commit and blob have the same fixed length, so no separator
// is needed for the concatenation to be unambiguous.
func (id ID) Digest() string {
	hasher := sha256.New()

	hasher.Write([]byte(id.Commit))
	hasher.Write([]byte(id.Blob))
	hasher.Write([]byte(id.Path))

	return hex.EncodeToString(hasher.Sum(nil))
}

// Record is the computed authorship for one ID: the number of lines that
// originate from each commit. An empty map marks a binary or undecodable
// file.
type Record struct {
	ID            ID                `json:"id"`
	LinesByCommit map[string]uint64 `json:"lines_by_commit"`
}

// NewRecord returns a record with an initialized line map.
func NewRecord(id ID) *Record {
	return &Record{ID: id, LinesByCommit: make(map[string]uint64)}
}

// TotalLines returns the number of attributed lines.
func (r *Record) TotalLines() uint64 {
	var total uint64

	for _, n := range r.LinesByCommit {
		total += n
	}

	return total
}
