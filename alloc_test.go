package slotcache

import (
	"errors"
	"testing"
)

func TestBumpAlloc(t *testing.T) {
	origin := keyWithTail(0x10)
	a := NewBumpAlloc(origin)

	if k := a.AllocateKey(); k != origin {
		t.Fatalf("first key = %s, want origin", k)
	}
	if k := a.AllocateChunk(5); k != origin.Add(1) {
		t.Fatalf("chunk base = %s", k)
	}
	if k := a.AllocateChunk(0); k != origin.Add(6) {
		t.Fatalf("full chunk base = %s", k)
	}
	if k := a.AllocateKey(); k != origin.Add(6).Add(1<<32) {
		t.Fatalf("key after full chunk = %s", k)
	}
}

func TestBumpAllocIsReproducible(t *testing.T) {
	layout := func() []Key {
		a := NewBumpAlloc(keyWithTail(0xaa))
		return []Key{a.AllocateKey(), a.AllocateChunk(3), a.AllocateKey()}
	}
	first, second := layout(), layout()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("allocation %d differs: %s vs %s", i, first[i], second[i])
		}
	}
}

// scriptAlloc returns pre-set base keys in order, ignoring capacities.
type scriptAlloc struct{ keys []Key }

func (s *scriptAlloc) next() Key {
	k := s.keys[0]
	s.keys = s.keys[1:]
	return k
}

func (s *scriptAlloc) AllocateKey() Key         { return s.next() }
func (s *scriptAlloc) AllocateChunk(uint32) Key { return s.next() }

func expectAlias(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		err, ok := r.(error)
		var ae *AliasError
		if !ok || !errors.As(err, &ae) {
			t.Fatalf("expected *AliasError panic, got %v", r)
		}
	}()
	fn()
}

func TestCheckedDetectsOverlap(t *testing.T) {
	base := keyWithTail(0x20)

	a := Checked(&scriptAlloc{keys: []Key{base, base}})
	a.AllocateKey()
	expectAlias(t, func() { a.AllocateKey() })

	a = Checked(&scriptAlloc{keys: []Key{base, base.Add(4)}})
	a.AllocateChunk(5)
	expectAlias(t, func() { a.AllocateKey() })
}

func TestCheckedAcceptsDisjoint(t *testing.T) {
	a := Checked(NewBumpAlloc(keyWithTail(0x01)))
	for i := 0; i < 10; i++ {
		a.AllocateKey()
		a.AllocateChunk(uint32(i))
	}
}

func TestCheckedHandlesWrappingRanges(t *testing.T) {
	var nearMax Key
	for i := range nearMax {
		nearMax[i] = 0xff
	}
	nearMax[KeyLen-1] = 0xfe
	// a 4 slot chunk at max-1 covers max-1, max, 0, 1
	a := Checked(&scriptAlloc{keys: []Key{nearMax, keyWithTail(2), keyWithTail(1)}})
	a.AllocateChunk(4)
	a.AllocateKey()
	expectAlias(t, func() { a.AllocateKey() })
}
