package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
	"github.com/Sumatoshi-tech/lineage/pkg/persist"
	"github.com/Sumatoshi-tech/lineage/pkg/store"
)

const (
	hashA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	hashB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	blob1 = "1111111111111111111111111111111111111111"
)

func newStore(t *testing.T, backend store.Backend, codec persist.Codec) *store.Store {
	t.Helper()

	s, err := store.New(context.Background(), backend, store.Options{Codec: codec})
	require.NoError(t, err)

	return s
}

func TestStore_RecordIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t, store.NewMemoryBackend(), nil)

	id := attribution.ID{Commit: hashA, Blob: blob1, Path: "src/main.go"}

	has, err := s.HasRecord(ctx, id)
	require.NoError(t, err)
	assert.False(t, has)

	first := &attribution.Record{ID: id, LinesByCommit: map[string]uint64{hashA: 10}}
	second := &attribution.Record{ID: id, LinesByCommit: map[string]uint64{hashB: 99}}

	require.NoError(t, s.PutRecord(ctx, first))
	require.NoError(t, s.PutRecord(ctx, second))

	got, err := s.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	has, err = s.HasRecord(ctx, id)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestStore_EmptyRecordDecodesToEmptyMap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t, store.NewMemoryBackend(), persist.NewGobCodec())

	id := attribution.ID{Commit: hashA, Blob: blob1, Path: "logo.png"}

	require.NoError(t, s.PutRecord(ctx, attribution.NewRecord(id)))

	got, err := s.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, got.LinesByCommit)
	assert.Empty(t, got.LinesByCommit)
}

func TestStore_CommitAndTreeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, codec := range []persist.Codec{
		persist.NewJSONCodec(),
		persist.NewGobCodec(),
		persist.NewLZ4Codec(persist.NewJSONCodec()),
	} {
		t.Run(codec.Name(), func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			backend := store.NewMemoryBackend()
			s := newStore(t, backend, codec)

			commit := &attribution.Commit{
				Hash:          hashB,
				Parents:       []string{hashA},
				Author:        "Alice",
				AuthorEmail:   "alice@example.com",
				AuthorTime:    time.Date(2021, time.March, 4, 10, 0, 0, 0, time.UTC),
				CommitterTime: time.Date(2021, time.March, 4, 11, 0, 0, 0, time.UTC),
				Subject:       "Add parser",
			}
			tree := &attribution.Tree{Commit: hashB, IDs: []attribution.ID{
				{Commit: hashA, Blob: blob1, Path: "a/b.go"},
				{Commit: hashB, Blob: blob1, Path: "c.go"},
			}}

			require.NoError(t, s.PutCommit(ctx, commit))
			require.NoError(t, s.PutTree(ctx, tree))

			// A fresh store over the same backend bypasses the caches.
			reopened := newStore(t, backend, codec)

			gotCommit, err := reopened.GetCommit(ctx, hashB)
			require.NoError(t, err)
			assert.Equal(t, commit.Hash, gotCommit.Hash)
			assert.Equal(t, commit.Parents, gotCommit.Parents)
			assert.True(t, commit.AuthorTime.Equal(gotCommit.AuthorTime))
			assert.Equal(t, commit.Subject, gotCommit.Subject)

			gotTree, err := reopened.GetTree(ctx, hashB)
			require.NoError(t, err)
			assert.Equal(t, tree, gotTree)

			has, err := reopened.HasTree(ctx, hashA)
			require.NoError(t, err)
			assert.False(t, has)

			has, err = reopened.HasCommit(ctx, hashB)
			require.NoError(t, err)
			assert.True(t, has)
		})
	}
}

func TestStore_MissingValuesWrapNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t, store.NewMemoryBackend(), nil)

	_, err := s.GetCommit(ctx, hashA)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetTree(ctx, hashA)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetRecord(ctx, attribution.ID{Commit: hashA, Blob: blob1, Path: "x"})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetLog(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_CommitCacheServesRepeatedReads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t, store.NewMemoryBackend(), nil)

	require.NoError(t, s.PutCommit(ctx, &attribution.Commit{Hash: hashA}))

	for range 3 {
		_, err := s.GetCommit(ctx, hashA)
		require.NoError(t, err)
	}

	commits, _ := s.CacheStats()
	assert.Equal(t, int64(2), commits.Hits)
	assert.Equal(t, int64(1), commits.Misses)
}

func TestStore_LogOverwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t, store.NewMemoryBackend(), nil)

	require.NoError(t, s.PutLog(ctx, []string{hashA}))
	require.NoError(t, s.PutLog(ctx, []string{hashB, hashA}))

	log, err := s.GetLog(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{hashB, hashA}, log)
}

func TestStore_FormatMismatch(t *testing.T) {
	t.Parallel()

	backend := store.NewMemoryBackend()
	_ = newStore(t, backend, persist.NewJSONCodec())

	_, err := store.New(context.Background(), backend, store.Options{Codec: persist.NewGobCodec()})
	require.ErrorIs(t, err, store.ErrFormatMismatch)
}

func TestStore_IgnorePatterns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := store.NewMemoryBackend()
	s := newStore(t, backend, nil)

	patterns, err := s.IgnorePatterns(ctx)
	require.NoError(t, err)
	assert.Empty(t, patterns)

	require.NoError(t, backend.Put(ctx, "ignore", []byte("# vendored\nvendor/\n\n  *.min.js  \n")))

	patterns, err = s.IgnorePatterns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/", "*.min.js"}, patterns)

	require.NoError(t, s.PutIgnorePatterns(ctx, []string{"docs/"}))

	patterns, err = s.IgnorePatterns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/"}, patterns)
}

func TestOpen_Backends(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for _, backend := range []string{store.BackendFS, store.BackendBolt, store.BackendBadger, store.BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			s, err := store.Open(ctx, store.Config{Backend: backend, Dir: t.TempDir(), Compress: true})
			require.NoError(t, err)

			require.NoError(t, s.PutLog(ctx, []string{hashA}))
			assert.Equal(t, "json+lz4", s.Codec().Name())
			require.NoError(t, s.Close())
		})
	}

	_, err := store.Open(ctx, store.Config{Backend: "tape"})
	require.ErrorIs(t, err, store.ErrUnknownBackend)

	_, err = store.Open(ctx, store.Config{Backend: store.BackendMemory, Encoding: "xml"})
	require.ErrorIs(t, err, persist.ErrUnknownCodec)
}
