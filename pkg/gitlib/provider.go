package gitlib

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
)

// commitCheckInterval is how many walked commits pass between context checks.
const commitCheckInterval = 256

// Provider serves history queries from a pool of independently opened
// repository handles, so concurrent blame calls never share libgit2 state.
type Provider struct {
	path string
	pool chan *Repository
	all  []*Repository
}

// NewProvider opens handles repository handles on path. handles below one
// is treated as one.
func NewProvider(path string, handles int) (*Provider, error) {
	handles = max(handles, 1)

	p := &Provider{
		path: path,
		pool: make(chan *Repository, handles),
	}

	for range handles {
		repo, err := OpenRepository(path)
		if err != nil {
			p.Close()

			return nil, err
		}

		p.all = append(p.all, repo)
		p.pool <- repo
	}

	return p, nil
}

// Path returns the repository path.
func (p *Provider) Path() string {
	return p.path
}

func (p *Provider) acquire(ctx context.Context) (*Repository, error) {
	select {
	case repo := <-p.pool:
		return repo, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Provider) release(repo *Repository) {
	p.pool <- repo
}

// Commits lists HEAD's history, newest first, each commit after all of its
// children.
func (p *Provider) Commits(ctx context.Context) ([]*attribution.Commit, error) {
	repo, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.release(repo)

	walk, err := repo.Walk()
	if err != nil {
		return nil, err
	}
	defer walk.Free()

	var commits []*attribution.Commit

	err = walk.ForEach(func(c *Commit) error {
		if len(commits)%commitCheckInterval == 0 && ctx.Err() != nil {
			return ctx.Err()
		}

		commits = append(commits, c.Attribution())

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}

	return commits, nil
}

// Files lists every tracked file of the commit, recursively.
func (p *Provider) Files(ctx context.Context, hash string) ([]attribution.FileEntry, error) {
	h, err := ParseHash(hash)
	if err != nil {
		return nil, err
	}

	repo, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.release(repo)

	commit, err := repo.LookupCommit(h)
	if err != nil {
		return nil, err
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	defer tree.Free()

	files, err := tree.Files()
	if err != nil {
		return nil, fmt.Errorf("list files of %s: %w", hash, err)
	}

	return files, nil
}

// Blame attributes the lines of path at commit hash. It returns ErrBinary
// for files that cannot be attributed line by line.
func (p *Provider) Blame(ctx context.Context, hash, path string) (map[string]uint64, error) {
	h, err := ParseHash(hash)
	if err != nil {
		return nil, err
	}

	repo, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.release(repo)

	return repo.Blame(h, path)
}

// Close frees every handle. It must not be called while queries run.
func (p *Provider) Close() error {
	for _, repo := range p.all {
		repo.Free()
	}

	p.all = nil

	return nil
}
