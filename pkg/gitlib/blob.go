package gitlib

import (
	"errors"
	"unicode/utf8"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/src-d/enry/v2"
)

// ErrBinary is returned by blame when the file is binary or not valid
// UTF-8 text.
var ErrBinary = errors.New("binary")

// Blob wraps a libgit2 blob.
type Blob struct {
	blob *git2go.Blob
}

// Hash returns the blob hash.
func (b *Blob) Hash() Hash {
	return HashFromOid(b.blob.Id())
}

// Size returns the blob size.
func (b *Blob) Size() int64 {
	return b.blob.Size()
}

// Contents returns the blob contents.
func (b *Blob) Contents() []byte {
	return b.blob.Contents()
}

// IsBinary reports whether the content is binary or undecodable text,
// neither of which can be attributed line by line.
func (b *Blob) IsBinary() bool {
	return IsBinary(b.blob.Contents())
}

// Free releases the blob resources.
func (b *Blob) Free() {
	if b.blob != nil {
		b.blob.Free()
		b.blob = nil
	}
}

// IsBinary reports whether data is binary or not valid UTF-8.
func IsBinary(data []byte) bool {
	return enry.IsBinary(data) || !utf8.Valid(data)
}
