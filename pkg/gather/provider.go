// Package gather populates a store with the commits, attribution trees and
// authorship records of a repository's history.
package gather

import (
	"context"

	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
)

// Provider answers history queries. Blame returns gitlib.ErrBinary for files
// that cannot be attributed line by line. Implementations must be safe for
// concurrent Blame calls.
type Provider interface {
	Commits(ctx context.Context) ([]*attribution.Commit, error)
	Files(ctx context.Context, hash string) ([]attribution.FileEntry, error)
	Blame(ctx context.Context, hash, path string) (map[string]uint64, error)
}
