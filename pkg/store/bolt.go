package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"
)

// boltOpenTimeout bounds the wait for the database file lock.
const boltOpenTimeout = 5 * time.Second

// BoltFile is the database file name inside the store directory.
const BoltFile = "lineage.db"

// BoltBackend keeps every key kind in its own bbolt bucket of a single file.
type BoltBackend struct {
	db *bolt.DB
}

// NewBoltBackend opens (or creates) the bbolt database in dir.
func NewBoltBackend(dir string) (*BoltBackend, error) {
	err := os.MkdirAll(dir, dirPerm)
	if err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, BoltFile), filePerm, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, kind := range []string{KindCommit, KindTree, KindRecord, KindMeta} {
			_, bucketErr := tx.CreateBucketIfNotExists([]byte(kind))
			if bucketErr != nil {
				return bucketErr
			}
		}

		return nil
	})
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("create bolt buckets: %w", err)
	}

	return &BoltBackend{db: db}, nil
}

// Has implements Backend.
func (b *BoltBackend) Has(_ context.Context, key string) (bool, error) {
	kind, name, err := splitKey(key)
	if err != nil {
		return false, fmt.Errorf("%w: %q", err, key)
	}

	var found bool

	err = b.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket([]byte(kind)).Get([]byte(name)) != nil

		return nil
	})

	return found, err
}

// Get implements Backend.
func (b *BoltBackend) Get(_ context.Context, key string) ([]byte, error) {
	kind, name, err := splitKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, key)
	}

	var data []byte

	err = b.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket([]byte(kind)).Get([]byte(name))
		if value == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}

		// Values are only valid for the life of the transaction.
		data = slices.Clone(value)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

// PutIfAbsent implements Backend.
func (b *BoltBackend) PutIfAbsent(_ context.Context, key string, data []byte) error {
	return b.update(key, func(bucket *bolt.Bucket, name []byte) error {
		if bucket.Get(name) != nil {
			return nil
		}

		return bucket.Put(name, data)
	})
}

// Put implements Backend.
func (b *BoltBackend) Put(_ context.Context, key string, data []byte) error {
	return b.update(key, func(bucket *bolt.Bucket, name []byte) error {
		return bucket.Put(name, data)
	})
}

func (b *BoltBackend) update(key string, fn func(*bolt.Bucket, []byte) error) error {
	kind, name, err := splitKey(key)
	if err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		return fn(tx.Bucket([]byte(kind)), []byte(name))
	})
	if err != nil {
		return fmt.Errorf("bolt put %s: %w", key, err)
	}

	return nil
}

// Close implements Backend.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
