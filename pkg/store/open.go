package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Sumatoshi-tech/lineage/pkg/persist"
)

// Backend names accepted by Open.
const (
	BackendFS     = "fs"
	BackendBolt   = "bolt"
	BackendBadger = "badger"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// repoHashBytes is how many digest bytes name a repository's store.
const repoHashBytes = 8

// Backends lists every backend name Open understands.
func Backends() []string {
	return []string{BackendFS, BackendBolt, BackendBadger, BackendGCS, BackendMemory}
}

// Config selects and configures a backend and the store on top of it.
type Config struct {
	Backend  string
	Dir      string
	Encoding string
	Compress bool
	GCS      GCSConfig

	CommitCacheEntries int
	TreeCacheEntries   int

	Logger *slog.Logger
}

// Open opens the configured backend and wraps it in a Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	codec, err := persist.New(cfg.Encoding, cfg.Compress)
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s, err := New(ctx, backend, Options{
		Codec:              codec,
		CommitCacheEntries: cfg.CommitCacheEntries,
		TreeCacheEntries:   cfg.TreeCacheEntries,
		Logger:             cfg.Logger,
	})
	if err != nil {
		backend.Close()

		return nil, err
	}

	return s, nil
}

func openBackend(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Backend {
	case BackendFS, "":
		return NewFSBackend(cfg.Dir)
	case BackendBolt:
		return NewBoltBackend(cfg.Dir)
	case BackendBadger:
		return NewBadgerBackend(BadgerConfig{Path: cfg.Dir, SyncWrites: true, Logger: cfg.Logger})
	case BackendGCS:
		return NewGCSBackend(ctx, cfg.GCS)
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// DefaultBaseDir returns the default parent directory for stores.
func DefaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return filepath.Join(home, ".lineage", "store")
}

// RepoHash computes a short hash of the repository path for use as a
// directory name.
func RepoHash(repoPath string) string {
	h := sha256.Sum256([]byte(repoPath))

	return hex.EncodeToString(h[:repoHashBytes])
}

// DefaultDir returns the default store directory for a repository.
func DefaultDir(repoPath string) string {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		abs = repoPath
	}

	return filepath.Join(DefaultBaseDir(), RepoHash(abs))
}
