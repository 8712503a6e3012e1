// Package ristretto is a volatile, cost-bounded host backend on
// dgraph-io/ristretto. Ristretto may refuse to admit a write under pressure;
// that surfaces as ErrRejected, which aborts the execution.
//
// Backend does not implement host.Batcher, so an execution commit is applied
// one slot at a time. A rejection part way through leaves earlier slots
// written.
package ristretto

import (
	"context"
	"errors"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/slotcache/host"
)

var ErrRejected = errors.New("ristretto backend: write rejected by admission policy")

type Backend struct {
	c *rc.Cache
}

var (
	_ host.Backend  = (*Backend)(nil)
	_ host.Volatile = (*Backend)(nil)
)

type Config struct {
	NumCounters int64
	MaxCost     int64 // bytes, counted as len(key)+len(value) per slot
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Backend, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Backend{c: c}, nil
}

func (b *Backend) Volatile() bool { return true }

func (b *Backend) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	v, ok := b.c.Get(string(key))
	if !ok {
		return nil, false, nil
	}
	raw, ok := v.([]byte)
	if !ok {
		// drop unexpected entry shape
		b.c.Del(string(key))
		return nil, false, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, true, nil
}

// Set waits for ristretto's async buffers so the write is visible (or known
// rejected) before returning.
func (b *Backend) Set(_ context.Context, key, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	k := string(key)
	if !b.c.Set(k, stored, int64(len(key)+len(value))) {
		return ErrRejected
	}
	b.c.Wait()
	if _, ok := b.c.Get(k); !ok {
		return ErrRejected
	}
	return nil
}

func (b *Backend) Del(_ context.Context, key []byte) error {
	b.c.Del(string(key))
	b.c.Wait()
	return nil
}

func (b *Backend) Close(_ context.Context) error {
	b.c.Wait()
	b.c.Close()
	return nil
}

// Metrics exposes ristretto's counters when Config.Metrics is set.
func (b *Backend) Metrics() *rc.Metrics { return b.c.Metrics }
