package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lineage/pkg/store"
)

const (
	testRecordKey = "record/ab12cd34"
	testCommitKey = "commit/0123456789abcdef0123456789abcdef01234567"

	// testConcurrentWriters is the number of goroutines racing on one key.
	testConcurrentWriters = 16
)

type backendFactory func(t *testing.T) store.Backend

func localBackends() map[string]backendFactory {
	return map[string]backendFactory{
		store.BackendMemory: func(_ *testing.T) store.Backend {
			return store.NewMemoryBackend()
		},
		store.BackendFS: func(t *testing.T) store.Backend {
			t.Helper()

			backend, err := store.NewFSBackend(t.TempDir())
			require.NoError(t, err)

			return backend
		},
		store.BackendBolt: func(t *testing.T) store.Backend {
			t.Helper()

			backend, err := store.NewBoltBackend(t.TempDir())
			require.NoError(t, err)

			return backend
		},
		store.BackendBadger: func(t *testing.T) store.Backend {
			t.Helper()

			backend, err := store.NewBadgerBackend(store.BadgerConfig{InMemory: true})
			require.NoError(t, err)

			return backend
		},
	}
}

func TestBackends_PutIfAbsentFirstWriterWins(t *testing.T) {
	t.Parallel()

	for name, factory := range localBackends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			backend := factory(t)

			defer backend.Close()

			has, err := backend.Has(ctx, testRecordKey)
			require.NoError(t, err)
			assert.False(t, has)

			_, err = backend.Get(ctx, testRecordKey)
			require.ErrorIs(t, err, store.ErrNotFound)

			require.NoError(t, backend.PutIfAbsent(ctx, testRecordKey, []byte("first")))
			require.NoError(t, backend.PutIfAbsent(ctx, testRecordKey, []byte("second")))

			data, err := backend.Get(ctx, testRecordKey)
			require.NoError(t, err)
			assert.Equal(t, "first", string(data))

			has, err = backend.Has(ctx, testRecordKey)
			require.NoError(t, err)
			assert.True(t, has)
		})
	}
}

func TestBackends_PutOverwrites(t *testing.T) {
	t.Parallel()

	for name, factory := range localBackends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			backend := factory(t)

			defer backend.Close()

			require.NoError(t, backend.Put(ctx, "log", []byte("v1")))
			require.NoError(t, backend.Put(ctx, "log", []byte("v2")))

			data, err := backend.Get(ctx, "log")
			require.NoError(t, err)
			assert.Equal(t, "v2", string(data))
		})
	}
}

func TestBackends_ConcurrentPutIfAbsent(t *testing.T) {
	t.Parallel()

	for name, factory := range localBackends() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			backend := factory(t)

			defer backend.Close()

			var wg sync.WaitGroup

			for range testConcurrentWriters {
				wg.Add(1)

				go func() {
					defer wg.Done()

					assert.NoError(t, backend.PutIfAbsent(ctx, testCommitKey, []byte("same")))
				}()
			}

			wg.Wait()

			data, err := backend.Get(ctx, testCommitKey)
			require.NoError(t, err)
			assert.Equal(t, "same", string(data))
		})
	}
}

func TestBackends_RejectInvalidKeys(t *testing.T) {
	t.Parallel()

	for name, factory := range localBackends() {
		if name == store.BackendMemory {
			continue
		}

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			backend := factory(t)

			defer backend.Close()

			for _, key := range []string{"", "blob/x", "record/../escape", "record/"} {
				_, err := backend.Get(ctx, key)
				require.ErrorIs(t, err, store.ErrInvalidKey, key)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "record/ab", store.ObjectName("", "record/ab"))
	assert.Equal(t, "repos/x/record/ab", store.ObjectName("repos/x", "record/ab"))
}
