package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig configures a BadgerBackend.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the database in memory only.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives badger's internal logs. Nil silences them.
	Logger *slog.Logger
}

// badgerLogger adapts slog to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerBackend stores keys verbatim in a badger database.
type BadgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend opens the badger database described by cfg.
func NewBadgerBackend(cfg BadgerConfig) (*BadgerBackend, error) {
	var opts badger.Options

	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badger: path is required for a persistent database")
		}

		err := os.MkdirAll(cfg.Path, dirPerm)
		if err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}

		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	return &BadgerBackend{db: db}, nil
}

// Has implements Backend.
func (b *BadgerBackend) Has(_ context.Context, key string) (bool, error) {
	_, _, err := splitKey(key)
	if err != nil {
		return false, fmt.Errorf("%w: %q", err, key)
	}

	err = b.db.View(func(txn *badger.Txn) error {
		_, getErr := txn.Get([]byte(key))

		return getErr
	})

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("badger has %s: %w", key, err)
	}
}

// Get implements Backend.
func (b *BadgerBackend) Get(_ context.Context, key string) ([]byte, error) {
	_, _, err := splitKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, key)
	}

	var data []byte

	err = b.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get([]byte(key))
		if getErr != nil {
			return getErr
		}

		data, getErr = item.ValueCopy(nil)

		return getErr
	})

	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	default:
		return nil, fmt.Errorf("badger get %s: %w", key, err)
	}
}

// PutIfAbsent implements Backend. A transaction conflict means another
// writer committed the same key first, which is the first-writer-wins
// outcome.
func (b *BadgerBackend) PutIfAbsent(_ context.Context, key string, data []byte) error {
	_, _, err := splitKey(key)
	if err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		_, getErr := txn.Get([]byte(key))
		if getErr == nil {
			return nil
		}

		if !errors.Is(getErr, badger.ErrKeyNotFound) {
			return getErr
		}

		return txn.Set([]byte(key), data)
	})
	if err != nil && !errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("badger put %s: %w", key, err)
	}

	return nil
}

// Put implements Backend.
func (b *BadgerBackend) Put(_ context.Context, key string, data []byte) error {
	_, _, err := splitKey(key)
	if err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("badger put %s: %w", key, err)
	}

	return nil
}

// Close implements Backend.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
