// Package slotcache provides typed, cached access to a sparse key-addressed
// storage space exposed by a sandboxed execution host. The host only offers
// untyped, metered read/write/clear of bytes at a 32-byte key, so every host
// call is expensive and counted.
//
// Components:
//   - Key: fixed-length slot address; Key.Add(n) enumerates chunk slots.
//   - Allocator: hands out disjoint keys (BumpAlloc, Checked).
//   - Cell[T]: read-through typed accessor for one slot.
//   - Chunk[T]: read-through typed accessor for N indexed slots.
//   - SyncChunk[T]: write-back cache over a Chunk with per-index dirty tracking
//     and a single Flush that reconciles every buffered mutation.
//   - Codec[V] (package codec): (de)serializes V <-> []byte.
//   - Host (package host): metered primitive over a pluggable byte Backend.
//
// Cache entry states per chunk index:
//
//	untouched            - no entry; the host is the source of truth
//	present(v), clean    - loaded once, or flushed
//	present(v), dirty    - Set/Put/GetMut since the last Flush
//	absent, clean|dirty  - empty slot, or Clear/Take since the last Flush
//
// Decoding stored bytes into the wrong type is fatal: the operation panics
// with *CodecError. host.Env.Execute turns such panics into an aborted
// execution that leaves the backend untouched.
//
// Typical execution:
//
//	alloc := slotcache.NewBumpAlloc(origin)
//	balances, _ := slotcache.NewSyncChunk[uint64](alloc, 1024, opts)
//	_, err := env.Execute(ctx, balances, func() error {
//	    v, _ := balances.Get(7)
//	    balances.Set(7, v+1)
//	    return nil
//	})
package slotcache
