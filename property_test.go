package slotcache

import (
	"math/rand"
	"testing"

	"github.com/bxcodec/faker/v3"
	"github.com/google/go-cmp/cmp"

	c "github.com/unkn0wn-root/slotcache/codec"
)

type account struct {
	Owner   string `cbor:"owner" faker:"name"`
	Balance uint64 `cbor:"balance"`
	Frozen  bool   `cbor:"frozen"`
}

func fakeAccount(t *testing.T) account {
	t.Helper()
	var a account
	if err := faker.FakeData(&a); err != nil {
		t.Fatalf("faker: %v", err)
	}
	return a
}

// TestSyncChunkMatchesModel drives a SyncChunk with random operations and
// checks it against a plain map, then checks the host after Flush.
func TestSyncChunkMatchesModel(t *testing.T) {
	const (
		capacity = 16
		rounds   = 20
		steps    = 200
	)
	rng := rand.New(rand.NewSource(1))
	cbor := c.MustCBOR[account]()

	for round := 0; round < rounds; round++ {
		h := newMemHost()
		s, err := NewSyncChunk(NewBumpAlloc(Key{}), capacity, Options[account]{Host: h, Codec: cbor})
		if err != nil {
			t.Fatalf("NewSyncChunk: %v", err)
		}

		model := make(map[uint32]account)
		for n := uint32(0); n < capacity; n++ {
			if rng.Intn(2) == 0 {
				a := fakeAccount(t)
				s.chunk.Store(n, a)
				model[n] = a
			}
		}
		h.reset()

		touched := make(map[uint32]struct{})
		for step := 0; step < steps; step++ {
			n := uint32(rng.Intn(capacity))
			touched[n] = struct{}{}
			want, wantOK := model[n]

			switch rng.Intn(6) {
			case 0:
				got, ok := s.Get(n)
				if ok != wantOK || !cmp.Equal(got, want) {
					t.Fatalf("round %d step %d Get(%d): %s", round, step, n, cmp.Diff(want, got))
				}
			case 1:
				a := fakeAccount(t)
				s.Set(n, a)
				model[n] = a
			case 2:
				a := fakeAccount(t)
				old, ok := s.Put(n, a)
				if ok != wantOK || !cmp.Equal(old, want) {
					t.Fatalf("round %d step %d Put(%d) old: %s", round, step, n, cmp.Diff(want, old))
				}
				model[n] = a
			case 3:
				old, ok := s.Take(n)
				if ok != wantOK || !cmp.Equal(old, want) {
					t.Fatalf("round %d step %d Take(%d): %s", round, step, n, cmp.Diff(want, old))
				}
				delete(model, n)
			case 4:
				s.Clear(n)
				delete(model, n)
			case 5:
				if p := s.GetMut(n); p != nil {
					p.Balance++
					want.Balance++
					model[n] = want
				} else if wantOK {
					t.Fatalf("round %d step %d GetMut(%d) = nil for present slot", round, step, n)
				}
			}
		}

		if h.reads > len(touched) {
			t.Fatalf("round %d: %d reads for %d distinct indices", round, h.reads, len(touched))
		}
		if h.writes != 0 {
			t.Fatalf("round %d: %d writes before flush", round, h.writes)
		}

		s.Flush()
		if h.writes > len(touched) {
			t.Fatalf("round %d: %d writes for %d distinct indices", round, h.writes, len(touched))
		}
		for n := uint32(0); n < capacity; n++ {
			got, ok := s.chunk.Load(n)
			want, wantOK := model[n]
			if ok != wantOK || !cmp.Equal(got, want) {
				t.Fatalf("round %d host index %d after flush: %s", round, n, cmp.Diff(want, got))
			}
		}
	}
}
