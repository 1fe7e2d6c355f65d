package attribution_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
)

func TestTree_JSONRoundTripSharesPrefixes(t *testing.T) {
	t.Parallel()

	tree := attribution.Tree{Commit: hashB, IDs: []attribution.ID{
		{Commit: hashA, Blob: blob1, Path: "README"},
		{Commit: hashB, Blob: blob2, Path: "src/a/x.go"},
		{Commit: hashA, Blob: blob1, Path: "src/a/y.go"},
		{Commit: hashB, Blob: blob1, Path: "src/b.go"},
	}}

	data, err := json.Marshal(tree)
	require.NoError(t, err)

	// The "src" directory name appears once in the nested encoding.
	assert.Equal(t, 1, strings.Count(string(data), `"src"`))

	var decoded attribution.Tree

	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, tree, decoded)
}

func TestTree_UnmarshalRejectsMalformedLeaf(t *testing.T) {
	t.Parallel()

	var tree attribution.Tree

	err := json.Unmarshal([]byte(`{"commit":"x","files":{"sub":{"f":{"id":["only-one"]}}}}`), &tree)
	require.ErrorIs(t, err, attribution.ErrMalformedTree)
}

func TestTree_EmptyRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(attribution.Tree{Commit: hashA})
	require.NoError(t, err)

	var decoded attribution.Tree

	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, hashA, decoded.Commit)
	assert.Empty(t, decoded.IDs)
}

func TestID_Digest(t *testing.T) {
	t.Parallel()

	id := attribution.ID{Commit: hashA, Blob: blob1, Path: "f"}

	digest := id.Digest()
	assert.Len(t, digest, 64)
	assert.Equal(t, digest, id.Digest())
	assert.NotEqual(t, digest, attribution.ID{Commit: hashA, Blob: blob1, Path: "g"}.Digest())
	assert.NotEqual(t, digest, attribution.ID{Commit: hashB, Blob: blob1, Path: "f"}.Digest())
}

func TestRecord_TotalLines(t *testing.T) {
	t.Parallel()

	rec := attribution.NewRecord(attribution.ID{Commit: hashA, Blob: blob1, Path: "f"})
	assert.Zero(t, rec.TotalLines())

	rec.LinesByCommit[hashA] = 3
	rec.LinesByCommit[hashB] = 4

	assert.Equal(t, uint64(7), rec.TotalLines())
}
