// Package redis is a shared, persistent host backend on redis/go-redis/v9.
// Commits run inside MULTI/EXEC, so other clients never observe a partially
// applied execution.
package redis

import (
	"context"
	"errors"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/slotcache/host"
)

var ErrNilClient = errors.New("redis backend: nil client")

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
	scanCount   int64
}

var (
	_ host.Backend = (*Redis)(nil)
	_ host.Batcher = (*Redis)(nil)
	_ host.Scanner = (*Redis)(nil)
)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool  // set true only if this backend exclusively owns the client
	ScanCount   int64 // SCAN COUNT hint; 0 => 256
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.ScanCount <= 0 {
		cfg.ScanCount = 256
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient, scanCount: cfg.ScanCount}, nil
}

func (r *Redis) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, string(key)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	if b == nil {
		b = []byte{}
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value []byte) error {
	return r.rdb.Set(ctx, string(key), value, 0).Err()
}

func (r *Redis) Del(ctx context.Context, key []byte) error {
	return r.rdb.Del(ctx, string(key)).Err()
}

func (r *Redis) Apply(ctx context.Context, ops []host.Op) error {
	if len(ops) == 0 {
		return nil
	}
	_, err := r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		for _, op := range ops {
			if op.Delete {
				p.Del(ctx, string(op.Key))
			} else {
				p.Set(ctx, string(op.Key), op.Value, 0)
			}
		}
		return nil
	})
	return err
}

// Scan walks keys with SCAN MATCH <prefix>*. Order is unspecified and keys
// written concurrently may or may not be reported.
func (r *Redis) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	match := globEscape(string(prefix)) + "*"
	var cursor uint64
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, match, r.scanCount).Result()
		if err != nil {
			return err
		}
		for _, k := range keys {
			v, err := r.rdb.Get(ctx, k).Bytes()
			if err == goredis.Nil {
				continue // deleted since SCAN
			}
			if err != nil {
				return err
			}
			if !fn([]byte(k), v) {
				return nil
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close releases the underlying redis client only when this backend owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (r *Redis) Close(context.Context) error {
	if r.closeClient {
		if err := r.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func globEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
