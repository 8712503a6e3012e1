package ristretto

import (
	"testing"

	"github.com/unkn0wn-root/slotcache/host"
	"github.com/unkn0wn-root/slotcache/host/hosttest"
)

func TestRistrettoConformance(t *testing.T) {
	hosttest.Run(t, func(t *testing.T) host.Backend {
		b, err := New(Config{NumCounters: 1e4, MaxCost: 1 << 20, BufferItems: 64})
		if err != nil {
			t.Fatal(err)
		}
		return b
	})
}

func TestRistrettoInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected invalid config error")
	}
}
