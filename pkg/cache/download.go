// Copyright 2025 Shadow Atlas Contributors
//
// DownloadCache stores byte values keyed by (provider, layer, state,
// vintage), via cometbft-db — the same KV abstraction the teacher's
// pkg/kvdb adapts for ledger storage (pkg/kvdb/adapter.go). The job runner
// stores each scope's last-seen response checksum here, not the response
// payload itself. A per-key lock prevents two
// concurrent fetches for the same scope from racing the cache, and an entry
// that fails its stored checksum is evicted rather than served stale.

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/shadowatlas/atlas/pkg/errs"
)

// DownloadCache wraps a cometbft-db handle with key-scoped locking and
// checksum verification.
type DownloadCache struct {
	db dbm.DB

	keyLocksMu sync.Mutex
	keyLocks   map[string]*sync.Mutex
}

// NewDownloadCache wraps an existing cometbft-db database.
func NewDownloadCache(db dbm.DB) *DownloadCache {
	return &DownloadCache{db: db, keyLocks: make(map[string]*sync.Mutex)}
}

// Key builds the cache key for a provider fetch scope.
func Key(provider, layer, stateFIPS string, vintage int) string {
	return fmt.Sprintf("download/%s/%s/%s/%d", provider, layer, stateFIPS, vintage)
}

func (c *DownloadCache) lockFor(key string) *sync.Mutex {
	c.keyLocksMu.Lock()
	defer c.keyLocksMu.Unlock()
	l, ok := c.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		c.keyLocks[key] = l
	}
	return l
}

// entry is the on-disk record: payload plus its own checksum, so a
// corrupted write (truncated process kill mid-SetSync) is detectable on
// read rather than silently served.
type entry struct {
	checksum string
	payload  []byte
}

func encodeEntry(payload []byte) []byte {
	sum := sha256.Sum256(payload)
	checksum := hex.EncodeToString(sum[:])
	out := make([]byte, 0, len(checksum)+1+len(payload))
	out = append(out, []byte(checksum)...)
	out = append(out, '\n')
	out = append(out, payload...)
	return out
}

func decodeEntry(raw []byte) (entry, error) {
	idx := -1
	for i, b := range raw {
		if b == '\n' {
			idx = i
			break
		}
	}
	if idx == -1 {
		return entry{}, errs.New(errs.SchemaError, "cache: malformed entry, no checksum delimiter")
	}
	checksum := string(raw[:idx])
	payload := raw[idx+1:]
	sum := sha256.Sum256(payload)
	if hex.EncodeToString(sum[:]) != checksum {
		return entry{}, errs.New(errs.SchemaError, "cache: entry failed checksum verification")
	}
	return entry{checksum: checksum, payload: payload}, nil
}

// Get returns the cached payload for key, or (nil, false) on a miss. A
// corrupt entry is evicted and treated as a miss.
func (c *DownloadCache) Get(key string) ([]byte, bool, error) {
	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	raw, err := c.db.Get([]byte(key))
	if err != nil {
		return nil, false, errs.Wrap(errs.Internal, "cache get", err)
	}
	if raw == nil {
		return nil, false, nil
	}
	e, err := decodeEntry(raw)
	if err != nil {
		_ = c.db.Delete([]byte(key))
		return nil, false, nil
	}
	return e.payload, true, nil
}

// Put stores payload under key, durably (SetSync).
func (c *DownloadCache) Put(key string, payload []byte) error {
	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	if err := c.db.SetSync([]byte(key), encodeEntry(payload)); err != nil {
		return errs.Wrap(errs.Internal, "cache put", err)
	}
	return nil
}

// Delete evicts a cache entry.
func (c *DownloadCache) Delete(key string) error {
	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()
	return c.db.Delete([]byte(key))
}

// Close releases the underlying database handle.
func (c *DownloadCache) Close() error {
	return c.db.Close()
}
