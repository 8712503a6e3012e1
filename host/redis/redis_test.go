package redis

import (
	"context"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/slotcache/host"
	"github.com/unkn0wn-root/slotcache/host/hosttest"
)

// Set SLOTCACHE_REDIS_ADDR (e.g. localhost:6379) to run against a live server.
// Each subtest flushes the selected database.
func TestRedisConformance(t *testing.T) {
	addr := os.Getenv("SLOTCACHE_REDIS_ADDR")
	if addr == "" {
		t.Skip("SLOTCACHE_REDIS_ADDR not set")
	}
	hosttest.Run(t, func(t *testing.T) host.Backend {
		client := goredis.NewClient(&goredis.Options{Addr: addr, DB: 15})
		if err := client.FlushDB(context.Background()).Err(); err != nil {
			t.Fatalf("flushdb: %v", err)
		}
		r, err := New(Config{Client: client, CloseClient: true})
		if err != nil {
			t.Fatal(err)
		}
		return r
	})
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(Config{}); err != ErrNilClient {
		t.Fatalf("err=%v want ErrNilClient", err)
	}
}

func TestGlobEscape(t *testing.T) {
	cases := map[string]string{
		"plain":  "plain",
		"a*b":    `a\*b`,
		"x?[y]":  `x\?\[y\]`,
		`back\s`: `back\\s`,
	}
	for in, want := range cases {
		if got := globEscape(in); got != want {
			t.Fatalf("globEscape(%q)=%q want %q", in, got, want)
		}
	}
}
