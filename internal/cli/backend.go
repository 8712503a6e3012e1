package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/tryfix/metrics"

	"github.com/unkn0wn-root/slotcache/host"
	"github.com/unkn0wn-root/slotcache/host/badger"
	"github.com/unkn0wn-root/slotcache/host/bigcache"
	"github.com/unkn0wn-root/slotcache/host/filestore"
	"github.com/unkn0wn-root/slotcache/host/memory"
	"github.com/unkn0wn-root/slotcache/host/pebble"
	hostredis "github.com/unkn0wn-root/slotcache/host/redis"
	"github.com/unkn0wn-root/slotcache/host/remote"
	"github.com/unkn0wn-root/slotcache/host/ristretto"
)

// openBackend builds the byte store selected by cfg.Backend.
func openBackend(ctx context.Context, cfg Config, reporter metrics.Reporter) (host.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		b   host.Backend
		err error
	)
	switch cfg.Backend {
	case BackendMemory:
		b = memory.New(&memory.Config{MetricsReporter: reporter})
	case BackendBadger:
		b, err = nonNil(badger.New(cfg.Name, &badger.Config{StorageDir: cfg.Path, MetricsReporter: reporter}))
	case BackendPebble:
		b, err = nonNil(pebble.New(cfg.Name, &pebble.Config{Dir: cfg.Path, MetricsReporter: reporter}))
	case BackendFile:
		b, err = nonNil(filestore.Open(cfg.Path))
	case BackendRedis:
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		b, err = nonNil(hostredis.New(hostredis.Config{Client: rdb, CloseClient: true}))
	case BackendRemote:
		b = remote.NewClient(&http.Client{Timeout: 30 * time.Second}, cfg.RemoteURL)
	case BackendBigcache:
		b, err = nonNil(bigcache.New(bigcache.Config{}))
	case BackendRistretto:
		b, err = nonNil(ristretto.New(ristretto.Config{NumCounters: 1e6, MaxCost: 64 << 20, BufferItems: 64}))
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}
	return b, nil
}

// nonNil keeps a typed nil out of the returned interface.
func nonNil[B host.Backend](b B, err error) (host.Backend, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}
