// Package index provides the in-memory hash table implementation for the ignite key-value store.
// This package embodies the core Bitcask architectural principle: maintain all keys in memory
// with minimal metadata while storing actual values on disk for optimal memory utilization.
//
// The index enables O(1) key lookups through an in-memory hash table while keeping
// storage overhead minimal. This allows the system to handle datasets significantly
// larger than available RAM while maintaining excellent read performance characteristics.
package index

import (
	"context"
	stdErrors "errors"

	"github.com/ignitekv/ignite/pkg/errors"
)

var (
	ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")
)

// New creates and initializes a new Index instance configured according to the
// provided parameters. The returned Index is immediately ready for concurrent
// use and includes optimizations like pre-allocated map capacity.
func New(ctx context.Context, config *Config) (*Index, error) {
	if config == nil || config.DataDir == "" || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "Index configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	return &Index{
		log:     config.Logger,
		dataDir: config.DataDir,
		entries: make(map[string]Locator, 2046),
	}, nil
}

// Get returns the current locator for key. had is false if the key has
// never been written, or was removed and never re-written.
func (idx *Index) Get(key string) (loc Locator, had bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	loc, had = idx.entries[key]
	return loc, had
}

// Put records loc as the current location of key, returning whatever
// locator it replaces. had is false the first time key is ever written.
func (idx *Index) Put(key string, loc Locator) (prev Locator, had bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	prev, had = idx.entries[key]
	idx.entries[key] = loc
	return prev, had
}

// Delete removes key from the index, returning the locator it pointed at.
// had is false if the key wasn't present.
func (idx *Index) Delete(key string) (prev Locator, had bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	prev, had = idx.entries[key]
	if had {
		delete(idx.entries, key)
	}
	return prev, had
}

// Snapshot returns a point-in-time copy of every key and its current
// locator. This is not exposed through any public engine operation (spec
// requires none); it exists solely for the compactor, which must walk
// every live entry to rewrite it into a fresh segment.
func (idx *Index) Snapshot() map[string]Locator {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[string]Locator, len(idx.entries))
	for k, v := range idx.entries {
		out[k] = v
	}
	return out
}

// Len returns the number of keys currently tracked by the index.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Close gracefully shuts down the Index, cleaning up resources and ensuring
// that the index cannot be used after closure.
func (idx *Index) Close() error {
	// Use atomic compare-and-swap to safely check and update the closed state.
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.log.Infow("Closing index system")

	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Clear the entries map to release all memory associated with the index.
	clear(idx.entries)
	idx.entries = nil

	idx.log.Infow("Index system closed successfully")
	return nil
}
