// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/trendscope/internal/models"
)

func setupBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewBadgerStore(db)
}

func TestBadgerStore_SetGet(t *testing.T) {
	store := setupBadgerStore(t)
	ctx := context.Background()
	now := time.Now()

	entry := Entry{
		Key:       testKey.String(),
		Value:     okData("badger"),
		CreatedAt: now,
		ExpiresAt: now.Add(10 * time.Minute),
	}
	if err := store.Set(ctx, entry); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := store.Get(ctx, entry.Key)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Value.Platform != models.PlatformReddit || got.Value.Hashtags[0].Tag != "badger" {
		t.Errorf("unexpected value %+v", got.Value)
	}
	if !got.ExpiresAt.Equal(entry.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, entry.ExpiresAt)
	}

	if _, ok, err := store.Get(ctx, "trends:none:hashtags:24h"); ok || err != nil {
		t.Errorf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestBadgerStore_DeleteExpired(t *testing.T) {
	store := setupBadgerStore(t)
	ctx := context.Background()
	now := time.Now()

	fresh := Entry{Key: "trends:reddit:hashtags:24h", Value: okData("a"), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	soon := Entry{Key: "trends:reddit:keywords:24h", Value: okData("b"), CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	for _, e := range []Entry{fresh, soon} {
		if err := store.Set(ctx, e); err != nil {
			t.Fatalf("Set %s: %v", e.Key, err)
		}
	}

	removed, err := store.DeleteExpired(ctx, now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if _, ok, _ := store.Get(ctx, soon.Key); ok {
		t.Error("expected expired entry to be gone")
	}
	if _, ok, _ := store.Get(ctx, fresh.Key); !ok {
		t.Error("expected fresh entry to remain")
	}
}

func TestBadgerStore_SkipsAlreadyExpired(t *testing.T) {
	store := setupBadgerStore(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Minute)

	if err := store.Set(ctx, Entry{Key: "k", ExpiresAt: past}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("expected already expired entry not to be written")
	}
}

func TestBadgerStore_BehindTrendCache(t *testing.T) {
	c := New(setupBadgerStore(t), func(models.DataType) time.Duration { return 10 * time.Minute })
	ctx := context.Background()

	calls := 0
	fetch := func(context.Context) (models.TrendData, error) {
		calls++
		return okData("persisted"), nil
	}
	for i := 0; i < 3; i++ {
		if _, err := c.GetOrFetch(ctx, testKey, fetch); err != nil {
			t.Fatalf("GetOrFetch: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 fetch through badger-backed cache, got %d", calls)
	}
}
