package slotcache

import (
	"slices"
)

// SyncChunk is a write-back cache over a Chunk.
//
// The first access to an index costs exactly one host read; every later
// access is served from memory. Mutations stay in memory, marked dirty,
// until Flush writes each dirty index back with one store or clear.
// Indices never accessed cost nothing.
//
// A SyncChunk belongs to exactly one program structure within one
// execution and is not safe for concurrent use.
type SyncChunk[T any] struct {
	noCopy noCopy

	chunk *Chunk[T]
	cache map[uint32]*entry[T]
}

var (
	_ Flusher   = (*SyncChunk[struct{}])(nil)
	_ Discarder = (*SyncChunk[struct{}])(nil)
)

// NewSyncChunk reserves capacity slots from alloc and wraps them in a
// write-back cache.
func NewSyncChunk[T any](alloc Allocator, capacity uint32, opts Options[T]) (*SyncChunk[T], error) {
	ch, err := NewChunk(alloc, capacity, opts)
	if err != nil {
		return nil, err
	}
	return &SyncChunk[T]{chunk: ch, cache: make(map[uint32]*entry[T])}, nil
}

// Key returns the base key of the underlying chunk.
func (s *SyncChunk[T]) Key() Key { return s.chunk.Key() }

// Capacity returns the declared capacity of the underlying chunk.
func (s *SyncChunk[T]) Capacity() uint32 { return s.chunk.Capacity() }

// Get returns the value at index n, if any.
func (s *SyncChunk[T]) Get(n uint32) (T, bool) {
	return s.lookup(n).get()
}

// GetMut returns a pointer into the cached value at index n, or nil when the
// slot is empty. A present value is marked dirty unconditionally, since the
// caller may mutate it through the pointer. An empty slot stays clean: there
// is no value to mutate, so nothing is written back for it.
func (s *SyncChunk[T]) GetMut(n uint32) *T {
	e := s.lookup(n)
	if e.state == entryPresent {
		e.dirty = true
	}
	return e.ptr()
}

// Take removes the value at index n and returns it, if any.
//
// Prefer Clear when the old value is not needed: it never reads the host.
func (s *SyncChunk[T]) Take(n uint32) (T, bool) {
	if e, ok := s.cache[n]; ok {
		return e.take()
	}
	old, ok := s.load(n)
	s.cache[n] = absentEntry[T](true)
	return old, ok
}

// Set replaces the value at index n. It never reads the host.
func (s *SyncChunk[T]) Set(n uint32, v T) {
	if e, ok := s.cache[n]; ok {
		e.put(v)
		return
	}
	s.cache[n] = presentEntry(v, true)
}

// Put replaces the value at index n and returns the previous value, if any.
//
// Prefer Set when the old value is not needed: it never reads the host.
func (s *SyncChunk[T]) Put(n uint32, v T) (T, bool) {
	if e, ok := s.cache[n]; ok {
		return e.put(v)
	}
	old, ok := s.load(n)
	s.cache[n] = presentEntry(v, true)
	return old, ok
}

// Clear removes the value at index n without reading the host.
func (s *SyncChunk[T]) Clear(n uint32) {
	if e, ok := s.cache[n]; ok {
		e.take()
		return
	}
	s.cache[n] = absentEntry[T](true)
}

// Flush writes every dirty index back to the host: present values are
// stored, absent ones cleared. Afterwards every entry is clean, so a second
// Flush without intervening mutation touches nothing.
//
// Cached values that implement Flusher are flushed right after being stored.
func (s *SyncChunk[T]) Flush() {
	dirty := make([]uint32, 0, len(s.cache))
	for n, e := range s.cache {
		if e.dirty {
			dirty = append(dirty, n)
		}
	}
	if len(dirty) == 0 {
		return
	}
	slices.Sort(dirty)

	var stores, clears int
	for _, n := range dirty {
		e := s.cache[n]
		switch e.state {
		case entryPresent:
			s.chunk.Store(n, e.value)
			flushNested(&e.value)
			stores++
		default:
			s.chunk.Clear(n)
			clears++
		}
		e.markClean()
	}

	s.chunk.log.Debug("flushed sync chunk", Fields{"key": s.chunk.key, "stores": stores, "clears": clears})
	s.chunk.hooks.Flushed(s.chunk.key, stores, clears)
}

// Discard drops every cached entry, dirty or not, without touching the host.
// The next access to any index reads the host again.
func (s *SyncChunk[T]) Discard() {
	clear(s.cache)
}

// Cached returns the number of indices with a cache entry.
func (s *SyncChunk[T]) Cached() int { return len(s.cache) }

// Dirty returns the number of entries awaiting Flush.
func (s *SyncChunk[T]) Dirty() int {
	var n int
	for _, e := range s.cache {
		if e.dirty {
			n++
		}
	}
	return n
}

// lookup returns the entry at n, populating it from the host on first access.
func (s *SyncChunk[T]) lookup(n uint32) *entry[T] {
	if e, ok := s.cache[n]; ok {
		return e
	}
	e := loadedEntry(s.load(n))
	s.cache[n] = e
	return e
}

func (s *SyncChunk[T]) load(n uint32) (T, bool) {
	v, ok := s.chunk.Load(n)
	s.chunk.hooks.Loaded(s.chunk.key, n, ok)
	return v, ok
}

// flushNested flushes a stored value that owns storage of its own.
func flushNested[T any](v *T) {
	if f, ok := any(*v).(Flusher); ok {
		f.Flush()
		return
	}
	if f, ok := any(v).(Flusher); ok {
		f.Flush()
	}
}
