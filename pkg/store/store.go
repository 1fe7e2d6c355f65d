package store

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Sumatoshi-tech/lineage/pkg/alg/lru"
	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
	"github.com/Sumatoshi-tech/lineage/pkg/persist"
)

// Default read-cache sizes.
const (
	DefaultCommitCacheEntries = 100_000
	DefaultTreeCacheEntries   = 64
)

const ignoreComment = "#"

// Options configures a Store.
type Options struct {
	// Codec encodes values. Defaults to compact JSON.
	Codec persist.Codec

	// CommitCacheEntries bounds the commit read cache.
	CommitCacheEntries int

	// TreeCacheEntries bounds the tree read cache.
	TreeCacheEntries int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Store is the typed facade over a Backend. Values handed out by the Get
// methods may be shared with the read caches and must not be modified.
type Store struct {
	backend Backend
	codec   persist.Codec
	logger  *slog.Logger

	commits *lru.Cache[string, *attribution.Commit]
	trees   *lru.Cache[string, *attribution.Tree]
}

// New wraps backend. The codec name is recorded in the store on first use;
// reopening with a different codec fails with ErrFormatMismatch.
func New(ctx context.Context, backend Backend, opts Options) (*Store, error) {
	if opts.Codec == nil {
		opts.Codec = persist.NewJSONCodec()
	}

	if opts.CommitCacheEntries <= 0 {
		opts.CommitCacheEntries = DefaultCommitCacheEntries
	}

	if opts.TreeCacheEntries <= 0 {
		opts.TreeCacheEntries = DefaultTreeCacheEntries
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Store{
		backend: backend,
		codec:   opts.Codec,
		logger:  opts.Logger,
		commits: lru.New(lru.WithMaxEntries[string, *attribution.Commit](opts.CommitCacheEntries)),
		trees:   lru.New(lru.WithMaxEntries[string, *attribution.Tree](opts.TreeCacheEntries)),
	}

	err := s.checkFormat(ctx)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) checkFormat(ctx context.Context) error {
	name := s.codec.Name()

	err := s.backend.PutIfAbsent(ctx, keyFormat, []byte(name))
	if err != nil {
		return fmt.Errorf("write format marker: %w", err)
	}

	recorded, err := s.backend.Get(ctx, keyFormat)
	if err != nil {
		return fmt.Errorf("read format marker: %w", err)
	}

	if string(recorded) != name {
		return fmt.Errorf("%w: store uses %q, configured %q", ErrFormatMismatch, recorded, name)
	}

	return nil
}

// Codec returns the codec the store encodes values with.
func (s *Store) Codec() persist.Codec {
	return s.codec
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) get(ctx context.Context, key string, v any) error {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		return err
	}

	err = persist.Unmarshal(s.codec, data, v)
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	return nil
}

func (s *Store) putIfAbsent(ctx context.Context, key string, v any) error {
	data, err := persist.Marshal(s.codec, v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	return s.backend.PutIfAbsent(ctx, key, data)
}

// HasCommit reports whether the commit is stored.
func (s *Store) HasCommit(ctx context.Context, hash string) (bool, error) {
	if s.commits.Contains(hash) {
		return true, nil
	}

	return s.backend.Has(ctx, commitKey(hash))
}

// GetCommit loads a commit through the commit cache.
func (s *Store) GetCommit(ctx context.Context, hash string) (*attribution.Commit, error) {
	if commit, ok := s.commits.Get(hash); ok {
		return commit, nil
	}

	var commit attribution.Commit

	err := s.get(ctx, commitKey(hash), &commit)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}

	s.commits.Put(hash, &commit)

	return &commit, nil
}

// PutCommit stores a commit unless it is already present.
func (s *Store) PutCommit(ctx context.Context, commit *attribution.Commit) error {
	err := s.putIfAbsent(ctx, commitKey(commit.Hash), commit)
	if err != nil {
		return fmt.Errorf("store commit %s: %w", commit.Hash, err)
	}

	return nil
}

// HasTree reports whether the commit's tree is stored.
func (s *Store) HasTree(ctx context.Context, hash string) (bool, error) {
	if s.trees.Contains(hash) {
		return true, nil
	}

	return s.backend.Has(ctx, treeKey(hash))
}

// GetTree loads a tree through the tree cache.
func (s *Store) GetTree(ctx context.Context, hash string) (*attribution.Tree, error) {
	if tree, ok := s.trees.Get(hash); ok {
		return tree, nil
	}

	var tree attribution.Tree

	err := s.get(ctx, treeKey(hash), &tree)
	if err != nil {
		return nil, fmt.Errorf("load tree %s: %w", hash, err)
	}

	s.trees.Put(hash, &tree)

	return &tree, nil
}

// PutTree stores a tree unless it is already present and caches it.
func (s *Store) PutTree(ctx context.Context, tree *attribution.Tree) error {
	err := s.putIfAbsent(ctx, treeKey(tree.Commit), tree)
	if err != nil {
		return fmt.Errorf("store tree %s: %w", tree.Commit, err)
	}

	s.trees.Put(tree.Commit, tree)

	return nil
}

// HasRecord reports whether the record for id is stored.
func (s *Store) HasRecord(ctx context.Context, id attribution.ID) (bool, error) {
	return s.backend.Has(ctx, recordKey(id.Digest()))
}

// GetRecord loads the record for id.
func (s *Store) GetRecord(ctx context.Context, id attribution.ID) (*attribution.Record, error) {
	var record attribution.Record

	err := s.get(ctx, recordKey(id.Digest()), &record)
	if err != nil {
		return nil, fmt.Errorf("load record %s@%s: %w", id.Path, id.Commit, err)
	}

	if record.LinesByCommit == nil {
		record.LinesByCommit = make(map[string]uint64)
	}

	return &record, nil
}

// PutRecord stores a record. Writing an id that already exists is a no-op.
func (s *Store) PutRecord(ctx context.Context, record *attribution.Record) error {
	err := s.putIfAbsent(ctx, recordKey(record.ID.Digest()), record)
	if err != nil {
		return fmt.Errorf("store record %s@%s: %w", record.ID.Path, record.ID.Commit, err)
	}

	return nil
}

// GetLog returns the stored commit order, newest first.
func (s *Store) GetLog(ctx context.Context) ([]string, error) {
	var log []string

	err := s.get(ctx, keyLog, &log)
	if err != nil {
		return nil, fmt.Errorf("load log: %w", err)
	}

	return log, nil
}

// PutLog replaces the stored commit order.
func (s *Store) PutLog(ctx context.Context, hashes []string) error {
	data, err := persist.Marshal(s.codec, hashes)
	if err != nil {
		return fmt.Errorf("encode log: %w", err)
	}

	err = s.backend.Put(ctx, keyLog, data)
	if err != nil {
		return fmt.Errorf("store log: %w", err)
	}

	return nil
}

// IgnorePatterns returns the gitignore-style patterns kept in the store's
// plain-text ignore file. A missing file yields no patterns.
func (s *Store) IgnorePatterns(ctx context.Context) ([]string, error) {
	data, err := s.backend.Get(ctx, keyIgnore)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("load ignore file: %w", err)
	}

	var patterns []string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ignoreComment) {
			continue
		}

		patterns = append(patterns, line)
	}

	err = scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("parse ignore file: %w", err)
	}

	s.logger.Debug("loaded ignore patterns", "count", len(patterns))

	return patterns, nil
}

// PutIgnorePatterns replaces the store's ignore file.
func (s *Store) PutIgnorePatterns(ctx context.Context, patterns []string) error {
	data := strings.Join(patterns, "\n")
	if data != "" {
		data += "\n"
	}

	err := s.backend.Put(ctx, keyIgnore, []byte(data))
	if err != nil {
		return fmt.Errorf("store ignore file: %w", err)
	}

	return nil
}

// CacheStats reports the commit and tree read-cache statistics.
func (s *Store) CacheStats() (commits, trees lru.Stats) {
	return s.commits.Stats(), s.trees.Stats()
}
