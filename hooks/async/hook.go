// Package asynchook moves hook delivery off the execution path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{LoadedEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	balances, _ := slotcache.NewSyncChunk[uint64](alloc, 1024, slotcache.Options[uint64]{
//	    Host:  env,
//	    Codec: codec.MustCBOR[uint64](),
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
//
// Events are dropped when the queue is full.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/slotcache"
)

type Hooks struct {
	inner   slotcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ slotcache.Hooks = (*Hooks)(nil)

func New(inner slotcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Hooks fired after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped returns the number of events lost to a full queue.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on closed queue
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) Loaded(k slotcache.Key, n uint32, found bool) {
	h.try(func() { h.inner.Loaded(k, n, found) })
}
func (h *Hooks) Flushed(k slotcache.Key, stores, clears int) {
	h.try(func() { h.inner.Flushed(k, stores, clears) })
}
func (h *Hooks) CodecFailed(k slotcache.Key, op string, err error) {
	h.try(func() { h.inner.CodecFailed(k, op, err) })
}
