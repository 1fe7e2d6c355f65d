// Package store is the persistent, append-only, content-addressed home of
// commits, attribution trees and authorship records.
package store

import (
	"context"
	"errors"
	"strings"
)

// Key prefixes and fixed keys used by Store.
const (
	KindCommit = "commit"
	KindTree   = "tree"
	KindRecord = "record"
	KindMeta   = "meta"

	keyLog    = "log"
	keyFormat = "format"
	keyIgnore = "ignore"

	keySeparator = "/"
)

// Sentinel errors returned by backends and the Store.
var (
	ErrNotFound       = errors.New("not found")
	ErrFormatMismatch = errors.New("store format mismatch")
	ErrInvalidKey     = errors.New("invalid store key")
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Backend is a byte-level key-value store. Keys are either
// "<kind>/<name>" for commits, trees and records, or a bare meta key.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Has reports whether key exists.
	Has(ctx context.Context, key string) (bool, error)
	// Get returns the value of key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// PutIfAbsent stores data under key unless the key already exists, in
	// which case it does nothing. The first writer wins.
	PutIfAbsent(ctx context.Context, key string, data []byte) error
	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error
	// Close releases the backend's resources.
	Close() error
}

func commitKey(hash string) string   { return KindCommit + keySeparator + hash }
func treeKey(hash string) string     { return KindTree + keySeparator + hash }
func recordKey(digest string) string { return KindRecord + keySeparator + digest }

// splitKey returns the kind and name of key. Meta keys have kind KindMeta.
func splitKey(key string) (kind, name string, err error) {
	kind, name, nested := strings.Cut(key, keySeparator)
	if !nested {
		if key == "" {
			return "", "", ErrInvalidKey
		}

		return KindMeta, key, nil
	}

	switch kind {
	case KindCommit, KindTree, KindRecord:
	default:
		return "", "", ErrInvalidKey
	}

	if name == "" || strings.Contains(name, keySeparator) || strings.HasPrefix(name, ".") {
		return "", "", ErrInvalidKey
	}

	return kind, name, nil
}
