package badger

import (
	"context"
	"testing"

	"github.com/unkn0wn-root/slotcache/host"
	"github.com/unkn0wn-root/slotcache/host/hosttest"
)

func TestBadgerConformance(t *testing.T) {
	hosttest.Run(t, func(t *testing.T) host.Backend {
		conf := NewConfig()
		conf.InMemory = true
		b, err := New(`test`, conf)
		if err != nil {
			t.Fatal(err)
		}
		return b
	})
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	conf := NewConfig()
	conf.StorageDir = t.TempDir()

	b, err := New(`reopen`, conf)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Set(ctx, []byte(`slot`), []byte(`value`)); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(ctx); err != nil {
		t.Fatal(err)
	}

	b, err = New(`reopen`, conf)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close(ctx)

	v, ok, err := b.Get(ctx, []byte(`slot`))
	if err != nil || !ok || string(v) != `value` {
		t.Fatalf(`after reopen: v=%q ok=%v err=%v`, v, ok, err)
	}
}
