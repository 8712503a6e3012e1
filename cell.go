package slotcache

// Cell is a typed accessor for exactly one storage slot.
// Every call is a host round-trip; nothing is cached.
// A Cell owns its key and must not be copied.
type Cell[T any] struct {
	noCopy noCopy

	key Key
	typed[T]
}

// NewCell allocates one slot from alloc and binds a typed cell to it.
func NewCell[T any](alloc Allocator, opts Options[T]) (*Cell[T], error) {
	t, err := newTyped(opts)
	if err != nil {
		return nil, err
	}
	return &Cell[T]{key: alloc.AllocateKey(), typed: t}, nil
}

// Key returns the raw key of the cell.
func (c *Cell[T]) Key() Key { return c.key }

// Load reads and decodes the stored value, if any.
// It panics with *CodecError when the stored bytes do not decode as T.
func (c *Cell[T]) Load() (T, bool) {
	return c.load(c.addr())
}

// Store encodes v and writes it to the slot.
func (c *Cell[T]) Store(v T) {
	c.store(c.addr(), v)
}

// Clear removes the stored value; Load returns false until the next Store.
func (c *Cell[T]) Clear() {
	c.clear(c.addr())
}

func (c *Cell[T]) addr() addr { return addr{base: c.key} }
