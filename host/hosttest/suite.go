// Package hosttest provides a conformance suite every host.Backend
// implementation runs in its own tests.
package hosttest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/slotcache/host"
)

// Factory returns a fresh, empty backend. The suite closes it.
type Factory func(t *testing.T) host.Backend

// Run exercises the host.Backend contract plus the optional Batcher and
// Scanner capabilities when b implements them.
func Run(t *testing.T, newBackend Factory) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) {
		b := open(t, newBackend)
		v, ok, err := b.Get(context.Background(), []byte("missing"))
		require.NoError(t, err)
		require.False(t, ok)
		require.Nil(t, v)
	})

	t.Run("SetGetOverwrite", func(t *testing.T) {
		ctx := context.Background()
		b := open(t, newBackend)
		require.NoError(t, b.Set(ctx, []byte("k"), []byte("v1")))
		assertValue(t, b, "k", "v1")
		require.NoError(t, b.Set(ctx, []byte("k"), []byte("v2")))
		assertValue(t, b, "k", "v2")
	})

	t.Run("EmptyValueIsPresent", func(t *testing.T) {
		ctx := context.Background()
		b := open(t, newBackend)
		require.NoError(t, b.Set(ctx, []byte("empty"), []byte{}))
		v, ok, err := b.Get(ctx, []byte("empty"))
		require.NoError(t, err)
		require.True(t, ok, "an empty value is a present slot")
		require.Len(t, v, 0)
	})

	t.Run("ReturnedBytesDoNotAlias", func(t *testing.T) {
		ctx := context.Background()
		b := open(t, newBackend)
		in := []byte("value")
		require.NoError(t, b.Set(ctx, []byte("k"), in))
		in[0] = 'X'
		got, _, err := b.Get(ctx, []byte("k"))
		require.NoError(t, err)
		got[1] = 'Y'
		assertValue(t, b, "k", "value")
	})

	t.Run("Del", func(t *testing.T) {
		ctx := context.Background()
		b := open(t, newBackend)
		require.NoError(t, b.Set(ctx, []byte("k"), []byte("v")))
		require.NoError(t, b.Del(ctx, []byte("k")))
		_, ok, err := b.Get(ctx, []byte("k"))
		require.NoError(t, err)
		require.False(t, ok)
		require.NoError(t, b.Del(ctx, []byte("never-set")), "deleting a missing key is not an error")
	})

	t.Run("BinaryKeys", func(t *testing.T) {
		ctx := context.Background()
		b := open(t, newBackend)
		k1 := []byte{0, 0, 0, 1}
		k2 := []byte{0, 0, 0, 2}
		require.NoError(t, b.Set(ctx, k1, []byte("one")))
		require.NoError(t, b.Set(ctx, k2, []byte("two")))
		assertValue(t, b, string(k1), "one")
		assertValue(t, b, string(k2), "two")
	})

	t.Run("Apply", func(t *testing.T) {
		ctx := context.Background()
		b := open(t, newBackend)
		batcher, ok := b.(host.Batcher)
		if !ok {
			t.Skip("backend does not implement host.Batcher")
		}
		require.NoError(t, b.Set(ctx, []byte("gone"), []byte("x")))
		require.NoError(t, batcher.Apply(ctx, []host.Op{
			{Key: []byte("a"), Value: []byte("1")},
			{Key: []byte("b"), Value: []byte("2")},
			{Key: []byte("gone"), Delete: true},
			{Key: []byte("never"), Delete: true},
		}))
		assertValue(t, b, "a", "1")
		assertValue(t, b, "b", "2")
		_, ok, err := b.Get(ctx, []byte("gone"))
		require.NoError(t, err)
		require.False(t, ok)
		require.NoError(t, batcher.Apply(ctx, nil))
	})

	t.Run("Scan", func(t *testing.T) {
		ctx := context.Background()
		b := open(t, newBackend)
		scanner, ok := b.(host.Scanner)
		if !ok {
			t.Skip("backend does not implement host.Scanner")
		}
		for i := 0; i < 5; i++ {
			require.NoError(t, b.Set(ctx, []byte(fmt.Sprintf("p:%d", i)), []byte(fmt.Sprint(i))))
		}
		require.NoError(t, b.Set(ctx, []byte("q:0"), []byte("other")))

		seen := map[string]string{}
		require.NoError(t, scanner.Scan(ctx, []byte("p:"), func(k, v []byte) bool {
			seen[string(k)] = string(v)
			return true
		}))
		require.Len(t, seen, 5)
		require.Equal(t, "3", seen["p:3"])

		var n int
		require.NoError(t, scanner.Scan(ctx, []byte("p:"), func(_, _ []byte) bool {
			n++
			return n < 2
		}))
		require.Equal(t, 2, n, "returning false stops the scan")
	})
}

func open(t *testing.T, newBackend Factory) host.Backend {
	t.Helper()
	b := newBackend(t)
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b
}

func assertValue(t *testing.T, b host.Backend, key, want string) {
	t.Helper()
	v, ok, err := b.Get(context.Background(), []byte(key))
	require.NoError(t, err)
	require.True(t, ok, "key %q missing", key)
	require.Equal(t, want, string(v))
}
