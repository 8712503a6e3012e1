package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/slotcache/host"
	"github.com/unkn0wn-root/slotcache/host/hosttest"
)

func TestFilestoreConformance(t *testing.T) {
	hosttest.Run(t, func(t *testing.T) host.Backend {
		s, err := Open(filepath.Join(t.TempDir(), "slots.cbor"))
		require.NoError(t, err)
		return s
	})
}

func TestFilestoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "slots.cbor")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Apply(ctx, []host.Op{
		{Key: []byte{0x01, 0x02}, Value: []byte("a")},
		{Key: []byte{0x03}, Value: []byte{}},
	}))
	require.NoError(t, s.Close(ctx))

	s, err = Open(path)
	require.NoError(t, err)
	v, ok, err := s.Get(ctx, []byte{0x01, 0x02})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", string(v))

	v, ok, err = s.Get(ctx, []byte{0x03})
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, v)
}

func TestFilestoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.cbor")
	require.NoError(t, os.WriteFile(path, []byte("not cbor"), 0o600))
	_, err := Open(path)
	require.Error(t, err)
}

func TestFilestoreFailedWriteKeepsState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "missing-dir", "slots.cbor"))
	require.NoError(t, err)

	require.Error(t, s.Set(ctx, []byte("k"), []byte("v")))
	_, ok, err := s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok, "a failed snapshot write must not change visible state")
}
