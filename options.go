package slotcache

import (
	"errors"

	c "github.com/unkn0wn-root/slotcache/codec"
)

// Host is the metered, synchronous storage primitive cells and chunks talk to.
// Every call is one host round-trip. Implementations abort the execution
// (panic) on failure rather than returning an error; see host.Env.
type Host interface {
	// Read returns the bytes stored at key and whether the slot is present.
	Read(key Key) ([]byte, bool)
	Write(key Key, value []byte)
	Clear(key Key)
}

// Options configure typed cells and chunks.
// Host and Codec are required.
type Options[T any] struct {
	Host  Host
	Codec c.Codec[T]

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

func (o Options[T]) validate() error {
	if o.Host == nil {
		return errors.New("slotcache: host is required")
	}
	if o.Codec == nil {
		return errors.New("slotcache: codec is required")
	}
	return nil
}

// typed is the shared codec plumbing of cells and chunks.
type typed[T any] struct {
	host  Host
	codec c.Codec[T]
	log   Logger
	hooks Hooks
}

func newTyped[T any](opts Options[T]) (typed[T], error) {
	if err := opts.validate(); err != nil {
		return typed[T]{}, err
	}
	return typed[T]{
		host:  opts.Host,
		codec: opts.Codec,
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
		hooks: coalesce[Hooks](opts.Hooks, NopHooks{}),
	}, nil
}

// addr locates one slot: a cell key, or a chunk base key plus index.
type addr struct {
	base  Key
	index uint32
	chunk bool
}

func (a addr) slot() Key {
	if !a.chunk {
		return a.base
	}
	return a.base.Add(uint64(a.index))
}

// load reads the slot at a and decodes it. Decode failure is fatal.
func (t typed[T]) load(a addr) (T, bool) {
	var zero T
	raw, ok := t.host.Read(a.slot())
	if !ok {
		return zero, false
	}
	v, err := t.codec.Decode(raw)
	if err != nil {
		t.fail("decode", a, err)
	}
	return v, true
}

func (t typed[T]) store(a addr, v T) {
	raw, err := t.codec.Encode(v)
	if err != nil {
		t.fail("encode", a, err)
	}
	t.host.Write(a.slot(), raw)
}

func (t typed[T]) clear(a addr) {
	t.host.Clear(a.slot())
}

func (t typed[T]) fail(op string, a addr, err error) {
	t.log.Error("storage codec failure; aborting execution",
		Fields{"op": op, "key": a.base, "index": a.index, "err": err})
	t.hooks.CodecFailed(a.base, op, err)
	panic(&CodecError{Op: op, Key: a.base, Index: a.index, Chunk: a.chunk, Err: err})
}
