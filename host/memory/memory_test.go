package memory

import (
	"context"
	"testing"

	"github.com/unkn0wn-root/slotcache/host"
	"github.com/unkn0wn-root/slotcache/host/hosttest"
)

func TestMemoryConformance(t *testing.T) {
	hosttest.Run(t, func(t *testing.T) host.Backend { return New(nil) })
}

func TestMemoryClosed(t *testing.T) {
	ctx := context.Background()
	m := New(NewConfig())
	if err := m.Set(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Fatalf("Len=%d want 1", m.Len())
	}
	if err := m.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.Get(ctx, []byte("k")); err != ErrClosed {
		t.Fatalf("Get after close: err=%v want ErrClosed", err)
	}
	if err := m.Apply(ctx, []host.Op{{Key: []byte("k"), Delete: true}}); err != ErrClosed {
		t.Fatalf("Apply after close: err=%v want ErrClosed", err)
	}
}
