package slotcache

// entryState tags what an entry asserts about its slot.
// An index with no entry at all is the third, untouched state.
type entryState uint8

const (
	entryAbsent entryState = iota
	entryPresent
)

// entry is the cached view of one chunk index.
// value is meaningful only while state == entryPresent.
type entry[T any] struct {
	state entryState
	value T
	dirty bool
}

func presentEntry[T any](v T, dirty bool) *entry[T] {
	return &entry[T]{state: entryPresent, value: v, dirty: dirty}
}

func absentEntry[T any](dirty bool) *entry[T] {
	return &entry[T]{state: entryAbsent, dirty: dirty}
}

// loadedEntry builds a clean entry from a host load result.
func loadedEntry[T any](v T, ok bool) *entry[T] {
	if ok {
		return presentEntry(v, false)
	}
	return absentEntry[T](false)
}

func (e *entry[T]) get() (T, bool) {
	if e.state != entryPresent {
		var zero T
		return zero, false
	}
	return e.value, true
}

// ptr returns a handle into the cached value, or nil when absent.
// Callers that hand the pointer out must mark the entry dirty.
func (e *entry[T]) ptr() *T {
	if e.state != entryPresent {
		return nil
	}
	return &e.value
}

// put overwrites the entry with v and returns the previous value.
func (e *entry[T]) put(v T) (T, bool) {
	old, ok := e.get()
	e.state, e.value, e.dirty = entryPresent, v, true
	return old, ok
}

// take marks the entry absent and returns the previous value.
func (e *entry[T]) take() (T, bool) {
	old, ok := e.get()
	var zero T
	e.state, e.value, e.dirty = entryAbsent, zero, true
	return old, ok
}

func (e *entry[T]) markClean() { e.dirty = false }
