package attribution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
)

const (
	hashA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	hashB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	hashC = "cccccccccccccccccccccccccccccccccccccccc"
	hashM = "dddddddddddddddddddddddddddddddddddddddd"

	blob1 = "1111111111111111111111111111111111111111"
	blob2 = "2222222222222222222222222222222222222222"
)

func commitWith(hash string, parents ...string) *attribution.Commit {
	return &attribution.Commit{Hash: hash, Parents: parents}
}

func TestBuildTree_RootCommitRecomputesEverything(t *testing.T) {
	t.Parallel()

	files := []attribution.FileEntry{
		{Path: "src/main.go", Blob: blob2},
		{Path: "README", Blob: blob1},
	}

	tree, stats, err := attribution.BuildTree(commitWith(hashA), files, nil)
	require.NoError(t, err)

	assert.Equal(t, hashA, tree.Commit)
	assert.Equal(t, []attribution.ID{
		{Commit: hashA, Blob: blob1, Path: "README"},
		{Commit: hashA, Blob: blob2, Path: "src/main.go"},
	}, tree.IDs)
	assert.Equal(t, attribution.TreeStats{Fresh: 2}, stats)
	assert.Len(t, tree.Fresh(), 2)
}

func TestBuildTree_InheritsUnchangedFile(t *testing.T) {
	t.Parallel()

	parent, _, err := attribution.BuildTree(commitWith(hashA),
		[]attribution.FileEntry{{Path: "f", Blob: blob1}}, nil)
	require.NoError(t, err)

	child, stats, err := attribution.BuildTree(commitWith(hashB, hashA),
		[]attribution.FileEntry{{Path: "f", Blob: blob1}, {Path: "g", Blob: blob2}},
		[]*attribution.Tree{parent})
	require.NoError(t, err)

	assert.Equal(t, []attribution.ID{
		{Commit: hashA, Blob: blob1, Path: "f"},
		{Commit: hashB, Blob: blob2, Path: "g"},
	}, child.IDs)
	assert.Equal(t, attribution.TreeStats{Inherited: 1, Fresh: 1}, stats)
	assert.Equal(t, []attribution.ID{{Commit: hashB, Blob: blob2, Path: "g"}}, child.Fresh())
}

func TestBuildTree_ChangedBlobRecomputes(t *testing.T) {
	t.Parallel()

	parent := &attribution.Tree{Commit: hashA, IDs: []attribution.ID{{Commit: hashA, Blob: blob1, Path: "f"}}}

	child, _, err := attribution.BuildTree(commitWith(hashB, hashA),
		[]attribution.FileEntry{{Path: "f", Blob: blob2}}, []*attribution.Tree{parent})
	require.NoError(t, err)

	assert.Equal(t, hashB, child.IDs[0].Commit)
}

func TestBuildTree_RenamedFileRecomputes(t *testing.T) {
	t.Parallel()

	parent := &attribution.Tree{Commit: hashA, IDs: []attribution.ID{{Commit: hashA, Blob: blob1, Path: "old"}}}

	child, _, err := attribution.BuildTree(commitWith(hashB, hashA),
		[]attribution.FileEntry{{Path: "new", Blob: blob1}}, []*attribution.Tree{parent})
	require.NoError(t, err)

	assert.Equal(t, hashB, child.IDs[0].Commit)
}

func TestBuildTree_MergeRequiresAllParentsToAgree(t *testing.T) {
	t.Parallel()

	left := &attribution.Tree{Commit: hashB, IDs: []attribution.ID{
		{Commit: hashA, Blob: blob1, Path: "shared"},
		{Commit: hashB, Blob: blob2, Path: "left-only"},
		{Commit: hashB, Blob: blob1, Path: "disputed"},
	}}
	right := &attribution.Tree{Commit: hashC, IDs: []attribution.ID{
		{Commit: hashA, Blob: blob1, Path: "shared"},
		{Commit: hashC, Blob: blob1, Path: "disputed"},
	}}

	files := []attribution.FileEntry{
		{Path: "shared", Blob: blob1},
		{Path: "left-only", Blob: blob2},
		{Path: "disputed", Blob: blob1},
	}

	merge, stats, err := attribution.BuildTree(commitWith(hashM, hashB, hashC), files,
		[]*attribution.Tree{left, right})
	require.NoError(t, err)

	origins := make(map[string]string)
	for _, id := range merge.IDs {
		origins[id.Path] = id.Commit
	}

	assert.Equal(t, hashA, origins["shared"])
	assert.Equal(t, hashM, origins["left-only"])
	assert.Equal(t, hashM, origins["disputed"])
	assert.Equal(t, attribution.TreeStats{Inherited: 1, Fresh: 2}, stats)
}

func TestBuildTree_MissingParentTree(t *testing.T) {
	t.Parallel()

	_, _, err := attribution.BuildTree(commitWith(hashB, hashA), nil, nil)
	require.ErrorIs(t, err, attribution.ErrParentTreeMissing)

	_, _, err = attribution.BuildTree(commitWith(hashB, hashA), nil, []*attribution.Tree{nil})
	require.ErrorIs(t, err, attribution.ErrParentTreeMissing)
}
