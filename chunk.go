package slotcache

// Chunk is a typed accessor for capacity indexed slots sharing one base key.
// Slot n lives at Key().Add(n). Every call is a direct host round-trip.
//
// Indices are not validated against the capacity: the allocator that sized
// the chunk is responsible for never producing an out-of-range access.
type Chunk[T any] struct {
	noCopy noCopy

	key      Key
	capacity uint32
	typed[T]
}

// NewChunk reserves capacity slots from alloc (0 meaning the full 2^32
// index space) and binds a typed chunk to them.
func NewChunk[T any](alloc Allocator, capacity uint32, opts Options[T]) (*Chunk[T], error) {
	t, err := newTyped(opts)
	if err != nil {
		return nil, err
	}
	return &Chunk[T]{key: alloc.AllocateChunk(capacity), capacity: capacity, typed: t}, nil
}

// Key returns the base key of the chunk's slots.
func (c *Chunk[T]) Key() Key { return c.key }

// Capacity returns the declared capacity (0 = 2^32).
func (c *Chunk[T]) Capacity() uint32 { return c.capacity }

// Load reads and decodes the value at index n, if any.
// It panics with *CodecError when the stored bytes do not decode as T.
func (c *Chunk[T]) Load(n uint32) (T, bool) {
	return c.load(c.at(n))
}

// Store encodes v and writes it to index n.
func (c *Chunk[T]) Store(n uint32, v T) {
	c.store(c.at(n), v)
}

// Clear removes the value at index n.
func (c *Chunk[T]) Clear(n uint32) {
	c.clear(c.at(n))
}

func (c *Chunk[T]) at(n uint32) addr { return addr{base: c.key, index: n, chunk: true} }
