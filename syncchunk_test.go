package slotcache

import (
	"strconv"
	"testing"

	c "github.com/unkn0wn-root/slotcache/codec"
)

func seed(h *memHost, s *SyncChunk[int], n uint32, v int) {
	h.m[s.Key().Add(uint64(n))] = []byte(strconv.Itoa(v))
}

func TestSyncChunkReadsEachIndexOnce(t *testing.T) {
	h := newMemHost()
	s := newSyncInts(t, h, 8)
	seed(h, s, 3, 33)

	for i := 0; i < 3; i++ {
		if v, ok := s.Get(3); !ok || v != 33 {
			t.Fatalf("Get(3) = %d, %v", v, ok)
		}
	}
	h.expect(t, 1, 0)

	// empty slots are cached too
	for i := 0; i < 3; i++ {
		if _, ok := s.Get(5); ok {
			t.Fatalf("index 5 must be empty")
		}
	}
	h.expect(t, 2, 0)

	for n := uint32(0); n < 8; n++ {
		s.Get(n)
	}
	h.expect(t, 8, 0)
}

func TestSyncChunkBatchesWrites(t *testing.T) {
	h := newMemHost()
	s := newSyncInts(t, h, 4)

	s.Set(1, 10)
	s.Set(1, 20)
	s.Set(1, 30)
	h.expect(t, 0, 0)

	s.Flush()
	h.expect(t, 0, 1)
	if got := string(h.m[s.Key().Add(1)]); got != "30" {
		t.Fatalf("stored %q, want 30", got)
	}
}

func TestSyncChunkFlushIsIdempotent(t *testing.T) {
	h := newMemHost()
	s := newSyncInts(t, h, 4)

	s.Set(0, 1)
	s.Clear(2)
	s.Flush()
	h.expect(t, 0, 2)

	h.reset()
	s.Flush()
	h.expect(t, 0, 0)
	if s.Dirty() != 0 || s.Cached() != 2 {
		t.Fatalf("dirty=%d cached=%d", s.Dirty(), s.Cached())
	}

	// a clean cache keeps serving reads
	if v, ok := s.Get(0); !ok || v != 1 {
		t.Fatalf("Get(0) after flush = %d, %v", v, ok)
	}
	h.expect(t, 0, 0)
}

func TestSyncChunkGetDoesNotDirty(t *testing.T) {
	h := newMemHost()
	s := newSyncInts(t, h, 4)
	seed(h, s, 0, 1)

	s.Get(0)
	s.Get(1)
	s.Flush()
	h.expect(t, 2, 0)
}

func TestSyncChunkClearNeverReads(t *testing.T) {
	h := newMemHost()
	s := newSyncInts(t, h, 4)
	seed(h, s, 0, 7)

	s.Clear(0)
	if _, ok := s.Get(0); ok {
		t.Fatalf("cleared index must read as empty")
	}
	h.expect(t, 0, 0)

	s.Flush()
	h.expect(t, 0, 1)
	if _, ok := h.m[s.Key()]; ok {
		t.Fatalf("flush must clear the slot")
	}
}

func TestSyncChunkSetNeverReads(t *testing.T) {
	h := newMemHost()
	s := newSyncInts(t, h, 4)
	seed(h, s, 0, 7)

	s.Set(0, 8)
	if v, _ := s.Get(0); v != 8 {
		t.Fatalf("Get(0) = %d", v)
	}
	h.expect(t, 0, 0)
}

func TestSyncChunkTake(t *testing.T) {
	h := newMemHost()
	s := newSyncInts(t, h, 4)
	seed(h, s, 2, 5)

	if v, ok := s.Take(2); !ok || v != 5 {
		t.Fatalf("Take(2) = %d, %v", v, ok)
	}
	h.expect(t, 1, 0)
	if _, ok := s.Take(2); ok {
		t.Fatalf("second Take must find nothing")
	}
	if _, ok := s.Get(2); ok {
		t.Fatalf("taken index must read as empty")
	}
	h.expect(t, 1, 0)

	// taking an untouched empty slot still costs one read and one clear
	if _, ok := s.Take(3); ok {
		t.Fatalf("index 3 must be empty")
	}
	s.Flush()
	h.expect(t, 2, 2)
	if len(h.m) != 0 {
		t.Fatalf("host must be empty, has %d slots", len(h.m))
	}
}

func TestSyncChunkPut(t *testing.T) {
	h := newMemHost()
	s := newSyncInts(t, h, 4)
	seed(h, s, 1, 11)

	if old, ok := s.Put(1, 12); !ok || old != 11 {
		t.Fatalf("Put(1) old = %d, %v", old, ok)
	}
	h.expect(t, 1, 0)
	if old, ok := s.Put(1, 13); !ok || old != 12 {
		t.Fatalf("second Put old = %d, %v", old, ok)
	}
	if _, ok := s.Put(0, 1); ok {
		t.Fatalf("Put on empty slot must report no previous value")
	}
	h.expect(t, 2, 0)

	if v, _ := s.Get(1); v != 13 {
		t.Fatalf("Get(1) = %d", v)
	}
	s.Flush()
	h.expect(t, 2, 2)
	if got := string(h.m[s.Key().Add(1)]); got != "13" {
		t.Fatalf("stored %q", got)
	}
}

func TestSyncChunkPutAfterClear(t *testing.T) {
	h := newMemHost()
	s := newSyncInts(t, h, 4)
	seed(h, s, 0, 1)

	s.Clear(0)
	if _, ok := s.Put(0, 2); ok {
		t.Fatalf("Put after Clear must see an empty slot")
	}
	h.expect(t, 0, 0)
}

func TestSyncChunkGetMut(t *testing.T) {
	h := newMemHost()
	s := newSyncInts(t, h, 4)
	seed(h, s, 0, 1)

	p := s.GetMut(0)
	if p == nil || *p != 1 {
		t.Fatalf("GetMut(0) = %v", p)
	}
	*p += 41
	if v, _ := s.Get(0); v != 42 {
		t.Fatalf("mutation through GetMut not visible: %d", v)
	}

	if s.GetMut(1) != nil {
		t.Fatalf("GetMut on an empty slot must return nil")
	}
	if s.Dirty() != 1 {
		t.Fatalf("only the present entry is dirty, got %d", s.Dirty())
	}

	s.Flush()
	h.expect(t, 2, 1)
	if got := string(h.m[s.Key()]); got != "42" {
		t.Fatalf("stored %q", got)
	}
}

func TestSyncChunkDiscard(t *testing.T) {
	h := newMemHost()
	s := newSyncInts(t, h, 4)
	seed(h, s, 0, 1)

	s.Set(0, 2)
	s.Clear(1)
	s.Discard()
	s.Flush()
	h.expect(t, 0, 0)

	if v, _ := s.Get(0); v != 1 {
		t.Fatalf("Get(0) after discard = %d, want host value", v)
	}
	h.expect(t, 1, 0)
}

func TestSyncChunkDecodeFailureIsFatal(t *testing.T) {
	h := newMemHost()
	hooks := &recHooks{}
	s, err := NewSyncChunk(NewBumpAlloc(Key{}), 4, Options[int]{Host: h, Codec: c.JSON[int]{}, Hooks: hooks})
	if err != nil {
		t.Fatalf("NewSyncChunk: %v", err)
	}
	h.m[s.Key().Add(3)] = []byte(`{"a":1}`)

	ce := mustPanicCodec(t, func() { s.Get(3) })
	if ce.Op != "decode" || !ce.Chunk || ce.Index != 3 || ce.Key != s.Key() {
		t.Fatalf("unexpected codec error: %+v", ce)
	}
	if len(hooks.failed) != 1 {
		t.Fatalf("CodecFailed hook fired %d times", len(hooks.failed))
	}
	mustPanicCodec(t, func() { s.Take(3) })
}

func TestSyncChunkHooks(t *testing.T) {
	h := newMemHost()
	hooks := &recHooks{}
	s, err := NewSyncChunk(NewBumpAlloc(Key{}), 4, Options[int]{Host: h, Codec: c.JSON[int]{}, Hooks: hooks})
	if err != nil {
		t.Fatalf("NewSyncChunk: %v", err)
	}

	s.Get(0)
	s.Get(0)
	s.Put(1, 1)
	s.Flush()
	s.Flush()

	if hooks.loaded != 2 || hooks.flushed != 1 {
		t.Fatalf("loaded=%d flushed=%d", hooks.loaded, hooks.flushed)
	}
}

// ledger is a cached value that owns storage of its own.
type ledger struct {
	Total   int `json:"total"`
	flushes int
}

func (l *ledger) Flush() { l.flushes++ }

func TestSyncChunkFlushesNestedValues(t *testing.T) {
	h := newMemHost()
	s, err := NewSyncChunk(NewBumpAlloc(Key{}), 2, Options[ledger]{Host: h, Codec: c.JSON[ledger]{}})
	if err != nil {
		t.Fatalf("NewSyncChunk: %v", err)
	}

	s.Set(0, ledger{Total: 3})
	s.Set(1, ledger{Total: 4})
	s.Flush()

	for n := uint32(0); n < 2; n++ {
		if v, _ := s.Get(n); v.flushes != 1 {
			t.Fatalf("index %d flushed %d times", n, v.flushes)
		}
	}

	// clean entries are not flushed again
	s.Flush()
	if v, _ := s.Get(0); v.flushes != 1 {
		t.Fatalf("clean entry flushed again")
	}
}

func TestStorageGroup(t *testing.T) {
	h := newMemHost()
	alloc := NewBumpAlloc(Key{})
	a, _ := NewSyncChunk(alloc, 4, intOpts(h))
	b, _ := NewSyncChunk(alloc, 4, intOpts(h))
	if a.Key() == b.Key() {
		t.Fatalf("chunks from one allocator must not alias")
	}

	group := Storage{a, b}
	a.Set(0, 1)
	b.Set(0, 2)
	group.Discard()
	group.Flush()
	h.expect(t, 0, 0)

	a.Set(0, 1)
	b.Set(0, 2)
	group.Flush()
	h.expect(t, 0, 2)
	if string(h.m[a.Key()]) != "1" || string(h.m[b.Key()]) != "2" {
		t.Fatalf("unexpected host contents: %v", h.m)
	}
}
