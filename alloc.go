package slotcache

import (
	"bytes"
	"sync"
)

// Allocator hands out disjoint key ranges to cells and chunks.
type Allocator interface {
	// AllocateKey reserves a single slot.
	AllocateKey() Key
	// AllocateChunk reserves capacity consecutive slots and returns the base key.
	// A capacity of 0 reserves the full 2^32 index space of a chunk.
	AllocateChunk(capacity uint32) Key
}

// chunkSpan is the number of slots a chunk of the given capacity occupies.
func chunkSpan(capacity uint32) uint64 {
	if capacity == 0 {
		return 1 << 32
	}
	return uint64(capacity)
}

// BumpAlloc allocates keys by bumping an offset from a fixed origin.
// Running the same layout against the same origin yields the same keys,
// which is how a storage layout is reattached in every execution.
type BumpAlloc struct {
	next Key
}

var _ Allocator = (*BumpAlloc)(nil)

func NewBumpAlloc(origin Key) *BumpAlloc {
	return &BumpAlloc{next: origin}
}

func (a *BumpAlloc) AllocateKey() Key {
	k := a.next
	a.next = a.next.Add(1)
	return k
}

func (a *BumpAlloc) AllocateChunk(capacity uint32) Key {
	k := a.next
	a.next = a.next.Add(chunkSpan(capacity))
	return k
}

// AliasError reports two allocations that share at least one key.
type AliasError struct {
	Base     Key
	Span     uint64
	Conflict Key
}

func (e *AliasError) Error() string {
	return "slotcache: key range " + e.Base.String() + " overlaps allocation at " + e.Conflict.String()
}

// keyRange is an inclusive run of keys that does not wrap.
type keyRange struct{ first, last Key }

func (r keyRange) overlaps(o keyRange) bool {
	return bytes.Compare(r.first[:], o.last[:]) <= 0 && bytes.Compare(o.first[:], r.last[:]) <= 0
}

// split turns span keys starting at base into at most two non-wrapping runs.
func split(base Key, span uint64) []keyRange {
	last := base.Add(span - 1)
	if bytes.Compare(last[:], base[:]) >= 0 {
		return []keyRange{{first: base, last: last}}
	}
	var maxKey Key
	for i := range maxKey {
		maxKey[i] = 0xff
	}
	return []keyRange{{first: base, last: maxKey}, {first: Key{}, last: last}}
}

// checked asserts at runtime that an allocator never returns overlapping ranges.
type checked struct {
	inner  Allocator
	mu     sync.Mutex
	ranges []keyRange
}

// Checked wraps alloc so that any range overlapping an earlier one panics
// with *AliasError. Use it with custom allocators whose disjointness is not
// guaranteed by construction.
func Checked(alloc Allocator) Allocator {
	return &checked{inner: alloc}
}

func (c *checked) AllocateKey() Key {
	k := c.inner.AllocateKey()
	c.claim(k, 1)
	return k
}

func (c *checked) AllocateChunk(capacity uint32) Key {
	k := c.inner.AllocateChunk(capacity)
	c.claim(k, chunkSpan(capacity))
	return k
}

func (c *checked) claim(base Key, span uint64) {
	runs := split(base, span)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.ranges {
		for _, n := range runs {
			if n.overlaps(r) {
				panic(&AliasError{Base: base, Span: span, Conflict: r.first})
			}
		}
	}
	c.ranges = append(c.ranges, runs...)
}
