// ABOUTME: Disk-backed cache backend built on BadgerDB
// ABOUTME: Survives restarts so CLI invocations can share cached pages
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// BadgerBackend stores entries in a BadgerDB directory.
type BadgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend opens (or creates) a cache database in dir. An empty
// dir opens an in-memory database.
func NewBadgerBackend(dir string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerBackend{db: db}, nil
}

func (b *BadgerBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	var result []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

func (b *BadgerBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (b *BadgerBackend) Delete(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *BadgerBackend) DeletePrefix(_ context.Context, prefix string) error {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerBackend) Clear(_ context.Context) error {
	return b.db.DropAll()
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
