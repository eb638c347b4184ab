// Copyright 2025 Shadow Atlas Contributors

package cache

import (
	"testing"

	dbm "github.com/cometbft/cometbft-db"
)

func TestDownloadCachePutGet(t *testing.T) {
	db := dbm.NewMemDB()
	c := NewDownloadCache(db)

	key := Key("tiger", "county", "06", 2023)
	payload := []byte("shapefile bytes go here")

	if _, ok, err := c.Get(key); err != nil || ok {
		t.Fatalf("expected miss before put, got ok=%v err=%v", ok, err)
	}
	if err := c.Put(key, payload); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("expected hit after put, got ok=%v err=%v", ok, err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch: got %q", got)
	}
}

func TestDownloadCacheCorruptEntryEvicted(t *testing.T) {
	db := dbm.NewMemDB()
	c := NewDownloadCache(db)
	key := Key("tiger", "county", "06", 2023)

	// Write a malformed entry directly, bypassing Put's checksum framing.
	if err := db.SetSync([]byte(key), []byte("not-a-valid-entry-no-newline-delimiter")); err != nil {
		t.Fatal(err)
	}
	_, ok, err := c.Get(key)
	if err != nil {
		t.Fatalf("corrupt entry should be treated as a miss, not an error: %v", err)
	}
	if ok {
		t.Fatal("corrupt entry should not be served")
	}
	raw, err := db.Get([]byte(key))
	if err != nil {
		t.Fatal(err)
	}
	if raw != nil {
		t.Fatal("corrupt entry should have been evicted")
	}
}

func TestMunicipalLRUEviction(t *testing.T) {
	lru := NewMunicipalLRU(2)
	lru.Put("a", nil)
	lru.Put("b", nil)
	lru.Put("c", nil) // evicts "a"

	if _, ok := lru.Get("a"); ok {
		t.Fatal("expected a to be evicted")
	}
	if _, ok := lru.Get("b"); !ok {
		t.Fatal("expected b to still be cached")
	}
	if _, ok := lru.Get("c"); !ok {
		t.Fatal("expected c to still be cached")
	}
	if lru.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", lru.Len())
	}
}
