// Package memory is an in-process host backend. It is the default for tests
// and for programs whose storage does not need to outlive the process.
package memory

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tryfix/metrics"

	"github.com/unkn0wn-root/slotcache/host"
	"github.com/unkn0wn-root/slotcache/internal/util"
)

var ErrClosed = errors.New("memory backend: closed")

type Config struct {
	MetricsReporter metrics.Reporter
}

func NewConfig() *Config {
	conf := new(Config)
	conf.parse()

	return conf
}

func (c *Config) parse() {
	if c.MetricsReporter == nil {
		c.MetricsReporter = metrics.NoopReporter()
	}
}

// Memory keeps slots in a map guarded by a RWMutex.
// Values are copied on the way in and out.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
	closed  bool
	metrics struct {
		storageSize  metrics.Gauge
		applyLatency metrics.Observer
	}
}

var (
	_ host.Backend  = (*Memory)(nil)
	_ host.Batcher  = (*Memory)(nil)
	_ host.Scanner  = (*Memory)(nil)
	_ host.Volatile = (*Memory)(nil)
)

func New(config *Config) *Memory {
	if config == nil {
		config = NewConfig()
	}
	config.parse()

	m := &Memory{records: make(map[string][]byte)}
	constLabels := map[string]string{`type`: `memory`}
	m.metrics.storageSize = config.MetricsReporter.Gauge(
		metrics.MetricConf{Path: `backend_storage_size`, ConstLabels: constLabels})
	m.metrics.applyLatency = config.MetricsReporter.Observer(
		metrics.MetricConf{Path: `backend_apply_latency_microseconds`, ConstLabels: constLabels})
	return m
}

func (m *Memory) Volatile() bool { return true }

func (m *Memory) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.records[string(key)]
	if !ok {
		return nil, false, nil
	}
	return util.CloneBytes(v), true, nil
}

func (m *Memory) Set(_ context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.records[string(key)] = util.CloneBytes(value)
	m.metrics.storageSize.Count(float64(len(m.records)), nil)
	return nil
}

func (m *Memory) Del(_ context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.records, string(key))
	m.metrics.storageSize.Count(float64(len(m.records)), nil)
	return nil
}

// Apply applies ops under a single write lock.
func (m *Memory) Apply(_ context.Context, ops []host.Op) error {
	defer func(begin time.Time) {
		m.metrics.applyLatency.Observe(float64(time.Since(begin).Nanoseconds()/1e3), nil)
	}(time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for _, op := range ops {
		if op.Delete {
			delete(m.records, string(op.Key))
			continue
		}
		m.records[string(op.Key)] = util.CloneBytes(op.Value)
	}
	m.metrics.storageSize.Count(float64(len(m.records)), nil)
	return nil
}

func (m *Memory) Scan(_ context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	vals := make([][]byte, len(keys))
	for i, k := range keys {
		vals[i] = util.CloneBytes(m.records[k])
	}
	m.mu.RUnlock()

	for i, k := range keys {
		if !fn([]byte(k), vals[i]) {
			return nil
		}
	}
	return nil
}

// Len returns the number of stored slots.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *Memory) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.records = nil
	return nil
}
