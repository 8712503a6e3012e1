// Package filestore is a persistent host backend that keeps every slot in a
// single CBOR snapshot file. Each commit rewrites the file atomically
// (write to temp, fsync, rename), so a crash leaves either the previous or
// the next snapshot, never a torn one.
//
// Suited to small layouts, fixtures and the slotctl tool; every commit costs
// a full rewrite.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/natefinch/atomic"

	"github.com/unkn0wn-root/slotcache/host"
	"github.com/unkn0wn-root/slotcache/internal/util"
)

var ErrClosed = errors.New("filestore: closed")

// snapshot is the on-disk form. Keys are kept as byte strings.
type snapshot struct {
	Version int               `cbor:"1,keyasint"`
	Slots   map[string][]byte `cbor:"2,keyasint"`
}

const snapshotVersion = 1

type Store struct {
	path string
	enc  cbor.EncMode

	mu     sync.RWMutex
	slots  map[string][]byte
	closed bool
}

var (
	_ host.Backend = (*Store)(nil)
	_ host.Batcher = (*Store)(nil)
	_ host.Scanner = (*Store)(nil)
)

// Open loads the snapshot at path, or starts empty if the file does not exist.
func Open(path string) (*Store, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, enc: enc, slots: make(map[string][]byte)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read %s: %w", path, err)
	}

	var snap snapshot
	if err := cbor.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("filestore: decode %s: %w", path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("filestore: %s has unsupported version %d", path, snap.Version)
	}
	if snap.Slots != nil {
		s.slots = snap.Slots
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	v, ok := s.slots[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := util.CloneBytes(v)
	if out == nil {
		out = []byte{}
	}
	return out, true, nil
}

func (s *Store) Set(ctx context.Context, key, value []byte) error {
	return s.Apply(ctx, []host.Op{{Key: key, Value: value}})
}

func (s *Store) Del(ctx context.Context, key []byte) error {
	return s.Apply(ctx, []host.Op{{Key: key, Delete: true}})
}

// Apply mutates a copy of the slot map and replaces the file; the in-memory
// view only advances once the new snapshot is durable.
func (s *Store) Apply(_ context.Context, ops []host.Op) error {
	if len(ops) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	next := make(map[string][]byte, len(s.slots)+len(ops))
	for k, v := range s.slots {
		next[k] = v
	}
	for _, op := range ops {
		if op.Delete {
			delete(next, string(op.Key))
			continue
		}
		v := util.CloneBytes(op.Value)
		if v == nil {
			v = []byte{}
		}
		next[string(op.Key)] = v
	}

	raw, err := s.enc.Marshal(snapshot{Version: snapshotVersion, Slots: next})
	if err != nil {
		return fmt.Errorf("filestore: encode: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("filestore: write %s: %w", s.path, err)
	}
	s.slots = next
	return nil
}

func (s *Store) Scan(_ context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	p := string(prefix)
	keys := make([]string, 0, len(s.slots))
	for k := range s.slots {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	vals := make([][]byte, len(keys))
	for i, k := range keys {
		vals[i] = util.CloneBytes(s.slots[k])
	}
	s.mu.RUnlock()

	for i, k := range keys {
		if !fn([]byte(k), vals[i]) {
			return nil
		}
	}
	return nil
}

func (s *Store) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
