// Package host implements the metered storage primitive that slotcache cells
// and chunks talk to, on top of a pluggable byte Backend.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the bytes previously passed to Set for a key (no metadata, no re-encoding).
//
// Backends in subpackages: memory, badger, pebble, redis, bigcache, ristretto,
// filestore and remote.
//
// Execution commits are atomic only on backends that implement Batcher
// (memory, badger, pebble, redis, filestore, remote). bigcache and ristretto
// take the writes one at a time.
package host

import (
	"context"
)

// Backend is a minimal byte store.
type Backend interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	// The returned slice must not alias backend-owned memory.
	Get(ctx context.Context, key []byte) ([]byte, bool, error)

	Set(ctx context.Context, key, value []byte) error

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key []byte) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Op is one journaled mutation.
type Op struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Batcher is implemented by backends that can apply a set of mutations
// atomically: either every op is visible afterwards or none is.
type Batcher interface {
	Apply(ctx context.Context, ops []Op) error
}

// Volatile is implemented by backends whose contents do not survive a restart
// or may be evicted under memory pressure.
type Volatile interface {
	Volatile() bool
}

// Apply writes ops to b, atomically when b is a Batcher.
func Apply(ctx context.Context, b Backend, ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	if bb, ok := b.(Batcher); ok {
		return bb.Apply(ctx, ops)
	}
	return applySequential(ctx, b, ops)
}

// applySequential is the fallback commit for backends without Batcher.
// A failure part way through leaves earlier ops applied.
func applySequential(ctx context.Context, b Backend, ops []Op) error {
	for _, op := range ops {
		var err error
		if op.Delete {
			err = b.Del(ctx, op.Key)
		} else {
			err = b.Set(ctx, op.Key, op.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Scanner is implemented by backends that can enumerate stored slots.
// Used by diagnostics such as slotctl dump; the cache never scans.
type Scanner interface {
	// Scan calls fn for every key with the given prefix, in key order where
	// the backend keeps one. Returning false from fn stops the scan.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error
}
