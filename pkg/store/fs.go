package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirPerm  = 0o750
	filePerm = 0o600

	// shardWidth is the number of leading digest characters naming a
	// record's shard directory.
	shardWidth = 2

	tempPattern = ".tmp-*"
)

// FSBackend stores one file per key below a root directory. Records are
// sharded by the first characters of their digest.
type FSBackend struct {
	root string
}

// NewFSBackend creates the directory layout under root.
func NewFSBackend(root string) (*FSBackend, error) {
	for _, kind := range []string{KindCommit, KindTree, KindRecord} {
		err := os.MkdirAll(filepath.Join(root, kind), dirPerm)
		if err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	return &FSBackend{root: root}, nil
}

// Root returns the store directory.
func (b *FSBackend) Root() string {
	return b.root
}

func (b *FSBackend) path(key string) (string, error) {
	kind, name, err := splitKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, key)
	}

	switch {
	case kind == KindMeta:
		return filepath.Join(b.root, name), nil
	case kind == KindRecord && len(name) > shardWidth:
		return filepath.Join(b.root, kind, name[:shardWidth], name), nil
	default:
		return filepath.Join(b.root, kind, name), nil
	}
}

// Has implements Backend.
func (b *FSBackend) Has(_ context.Context, key string) (bool, error) {
	path, err := b.path(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("stat %s: %w", key, err)
	}

	return true, nil
}

// Get implements Backend.
func (b *FSBackend) Get(_ context.Context, key string) ([]byte, error) {
	path, err := b.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return data, nil
}

// PutIfAbsent implements Backend. The value is written to a temporary file
// and hard-linked into place, so concurrent writers never expose partial
// content and exactly one of them wins.
func (b *FSBackend) PutIfAbsent(ctx context.Context, key string, data []byte) error {
	exists, err := b.Has(ctx, key)
	if err != nil || exists {
		return err
	}

	return b.write(key, data, func(tmp, path string) error {
		linkErr := os.Link(tmp, path)
		if errors.Is(linkErr, os.ErrExist) {
			return nil
		}

		return linkErr
	})
}

// Put implements Backend, replacing the file atomically.
func (b *FSBackend) Put(_ context.Context, key string, data []byte) error {
	return b.write(key, data, os.Rename)
}

func (b *FSBackend) write(key string, data []byte, install func(tmp, path string) error) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)

	err = os.MkdirAll(dir, dirPerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	_, err = tmp.Write(data)
	if err != nil {
		tmp.Close()

		return fmt.Errorf("write %s: %w", key, err)
	}

	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}

	err = os.Chmod(tmpName, filePerm)
	if err != nil {
		return fmt.Errorf("chmod %s: %w", key, err)
	}

	err = install(tmpName, path)
	if err != nil {
		return fmt.Errorf("install %s: %w", key, err)
	}

	return nil
}

// Close implements Backend.
func (b *FSBackend) Close() error {
	return nil
}
