package slotcache

// Flusher is implemented by storage structures that buffer mutations.
// Flush is invoked once at the end of each execution, after all mutations.
type Flusher interface {
	Flush()
}

// Discarder is implemented by storage structures that can drop buffered
// mutations when an execution aborts.
type Discarder interface {
	Discard()
}

// Storage groups the buffered structures of one program's storage layout so
// the execution runner can flush or discard them as a unit.
type Storage []Flusher

var (
	_ Flusher   = Storage(nil)
	_ Discarder = Storage(nil)
)

// Flush flushes every member in order.
func (s Storage) Flush() {
	for _, f := range s {
		f.Flush()
	}
}

// Discard discards every member that supports it.
func (s Storage) Discard() {
	for _, f := range s {
		if d, ok := f.(Discarder); ok {
			d.Discard()
		}
	}
}
