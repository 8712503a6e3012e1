package slotcache

import (
	"testing"

	c "github.com/unkn0wn-root/slotcache/codec"
)

// memHost is an in-memory Host that counts round-trips.
type memHost struct {
	m      map[Key][]byte
	reads  int
	writes int
}

var _ Host = (*memHost)(nil)

func newMemHost() *memHost { return &memHost{m: make(map[Key][]byte)} }

func (h *memHost) Read(k Key) ([]byte, bool) {
	h.reads++
	v, ok := h.m[k]
	if !ok {
		return nil, false
	}
	return append([]byte{}, v...), true
}

func (h *memHost) Write(k Key, v []byte) {
	h.writes++
	h.m[k] = append([]byte{}, v...)
}

func (h *memHost) Clear(k Key) {
	h.writes++
	delete(h.m, k)
}

func (h *memHost) reset() { h.reads, h.writes = 0, 0 }

func (h *memHost) expect(t *testing.T, reads, writes int) {
	t.Helper()
	if h.reads != reads || h.writes != writes {
		t.Fatalf("host calls: reads=%d writes=%d, want reads=%d writes=%d", h.reads, h.writes, reads, writes)
	}
}

// recHooks records hook invocations.
type recHooks struct {
	loaded  int
	flushed int
	failed  []string
}

func (r *recHooks) Loaded(Key, uint32, bool)              { r.loaded++ }
func (r *recHooks) Flushed(Key, int, int)                 { r.flushed++ }
func (r *recHooks) CodecFailed(_ Key, op string, _ error) { r.failed = append(r.failed, op) }

func intOpts(h Host) Options[int] {
	return Options[int]{Host: h, Codec: c.JSON[int]{}}
}

func newSyncInts(t *testing.T, h Host, capacity uint32) *SyncChunk[int] {
	t.Helper()
	s, err := NewSyncChunk(NewBumpAlloc(Key{}), capacity, intOpts(h))
	if err != nil {
		t.Fatalf("NewSyncChunk: %v", err)
	}
	return s
}

// mustPanicCodec runs fn and returns the *CodecError it panics with.
func mustPanicCodec(t *testing.T, fn func()) (ce *CodecError) {
	t.Helper()
	defer func() {
		r := recover()
		var ok bool
		if ce, ok = r.(*CodecError); !ok {
			t.Fatalf("expected *CodecError panic, got %T (%v)", r, r)
		}
	}()
	fn()
	return nil
}
