package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/slotcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	LoadedEvery  uint64
	FlushedEvery uint64
	// Optional key renderer. Defaults to the hex key.
	FormatKey func(slotcache.Key) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	loadedCtr  atomic.Uint64
	flushedCtr atomic.Uint64
}

var _ slotcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) key(k slotcache.Key) string {
	if h.opts.FormatKey != nil {
		return h.opts.FormatKey(k)
	}
	return k.String()
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Loaded(k slotcache.Key, index uint32, found bool) {
	if h.l == nil || !sample(h.opts.LoadedEvery, &h.loadedCtr) {
		return
	}
	h.l.Debug("slotcache.loaded",
		"key", h.key(k),
		"index", index,
		"found", found)
}

func (h *Hooks) Flushed(k slotcache.Key, stores, clears int) {
	if h.l == nil || !sample(h.opts.FlushedEvery, &h.flushedCtr) {
		return
	}
	h.l.Debug("slotcache.flushed",
		"key", h.key(k),
		"stores", stores,
		"clears", clears)
}

func (h *Hooks) CodecFailed(k slotcache.Key, op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("slotcache.codec_failed",
		"key", h.key(k),
		"op", op,
		"err", err)
}
