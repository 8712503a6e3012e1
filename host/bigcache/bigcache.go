// Package bigcache is a volatile host backend on allegro/bigcache/v3.
// Entries live for LifeWindow and may be evicted when HardMaxCacheSizeMB is
// reached; use it for scratch programs and load tests, not for durable state.
//
// Backend does not implement host.Batcher, so an execution commit is applied
// one slot at a time and a failure part way through leaves earlier slots
// written.
package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/slotcache/host"
)

type Backend struct {
	c *bc.BigCache
}

var (
	_ host.Backend  = (*Backend)(nil)
	_ host.Volatile = (*Backend)(nil)
)

type Config struct {
	LifeWindow         time.Duration // 0 => 24h
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Backend, error) {
	if cfg.LifeWindow <= 0 {
		cfg.LifeWindow = 24 * time.Hour
	}
	conf := bc.DefaultConfig(cfg.LifeWindow)
	conf.Verbose = false
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Backend{c: c}, nil
}

func (b *Backend) Volatile() bool { return true }

// Get returns a copy; bigcache never hands out its shard buffers.
func (b *Backend) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	v, err := b.c.Get(string(key))
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (b *Backend) Set(_ context.Context, key, value []byte) error {
	return b.c.Set(string(key), value)
}

func (b *Backend) Del(_ context.Context, key []byte) error {
	err := b.c.Delete(string(key))
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (b *Backend) Close(_ context.Context) error {
	return b.c.Close()
}
