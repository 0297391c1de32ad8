// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const badgerKeyPrefix = "trendcache:"

// BadgerStore persists cache entries in BadgerDB so a restart does not
// discard still-fresh trend data. Entries carry a native badger TTL as well
// as ExpiresAt; badger drops them during compaction and DeleteExpired
// catches anything the caller sees before that happens.
type BadgerStore struct {
	db     *badger.DB
	ownsDB bool
	prefix []byte
	now    func() time.Time
}

// OpenBadgerStore opens (or creates) a BadgerDB at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache at %s: %w", path, err)
	}
	s := NewBadgerStore(db)
	s.ownsDB = true
	return s, nil
}

// NewBadgerStore wraps an already open database. Close will not close db.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, prefix: []byte(badgerKeyPrefix), now: time.Now}
}

func (s *BadgerStore) key(k string) []byte {
	return append(append([]byte{}, s.prefix...), k...)
}

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, key string) (Entry, bool, error) {
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("badger get %s: %w", key, err)
	}
	return entry, true, nil
}

// Set implements Store. Entries already past ExpiresAt are not written.
func (s *BadgerStore) Set(_ context.Context, entry Entry) error {
	ttl := entry.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		// Badger TTLs have one second resolution; round up so badger never
		// drops an entry we still consider fresh.
		e := badger.NewEntry(s.key(entry.Key), data).WithTTL(ttl.Truncate(time.Second) + time.Second)
		return txn.SetEntry(e)
	})
}

// Delete implements Store.
func (s *BadgerStore) Delete(_ context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(key))
	})
}

// DeleteExpired implements Store.
func (s *BadgerStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	count := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		var keysToDelete [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var entry Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				// Undecodable entries are unusable; sweep them too.
				keysToDelete = append(keysToDelete, item.KeyCopy(nil))
				continue
			}
			if entry.Expired(now) {
				keysToDelete = append(keysToDelete, item.KeyCopy(nil))
			}
		}

		for _, key := range keysToDelete {
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
