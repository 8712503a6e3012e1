package slotcache

import "testing"

func TestEntryTransitions(t *testing.T) {
	e := loadedEntry(5, true)
	if v, ok := e.get(); !ok || v != 5 || e.dirty {
		t.Fatalf("loaded entry: %d %v dirty=%v", v, ok, e.dirty)
	}

	if old, ok := e.put(6); !ok || old != 5 || !e.dirty {
		t.Fatalf("put: old=%d ok=%v dirty=%v", old, ok, e.dirty)
	}
	e.markClean()

	if old, ok := e.take(); !ok || old != 6 || !e.dirty || e.state != entryAbsent {
		t.Fatalf("take: old=%d ok=%v dirty=%v", old, ok, e.dirty)
	}
	if e.ptr() != nil {
		t.Fatalf("absent entry must not hand out a pointer")
	}
	if _, ok := e.take(); ok {
		t.Fatalf("take on absent entry must find nothing")
	}

	a := loadedEntry(0, false)
	if a.state != entryAbsent || a.dirty {
		t.Fatalf("missing slot must load as clean absent entry")
	}
}
