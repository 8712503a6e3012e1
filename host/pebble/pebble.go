// Package pebble is a persistent host backend on cockroachdb/pebble.
// Commits are applied as a single pebble batch.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"time"

	pebbleDB "github.com/cockroachdb/pebble"
	"github.com/tryfix/metrics"

	"github.com/unkn0wn-root/slotcache/host"
)

type Config struct {
	MetricsReporter metrics.Reporter
	Dir             string
	Options         *pebbleDB.Options
	// NoSync skips fsync on commit; faster, but a crash may lose the last commits.
	NoSync bool
}

func NewConfig() *Config {
	conf := new(Config)
	conf.parse()

	return conf
}

func (c *Config) parse() {
	if c.Dir == `` {
		c.Dir = `storage`
	}
	if c.Options == nil {
		c.Options = &pebbleDB.Options{}
	}
	if c.MetricsReporter == nil {
		c.MetricsReporter = metrics.NoopReporter()
	}
}

type Pebble struct {
	pebble    *pebbleDB.DB
	writeOpts *pebbleDB.WriteOptions
	metrics   struct {
		readLatency   metrics.Observer
		updateLatency metrics.Observer
	}
}

var (
	_ host.Backend = (*Pebble)(nil)
	_ host.Batcher = (*Pebble)(nil)
	_ host.Scanner = (*Pebble)(nil)
)

func New(name string, config *Config) (*Pebble, error) {
	if config == nil {
		config = NewConfig()
	}
	config.parse()

	dbName := fmt.Sprintf(`%s/pebble/%s`, config.Dir, name)
	pb, err := pebbleDB.Open(dbName, config.Options)
	if err != nil {
		return nil, fmt.Errorf(`pebble backend: db open %s: %w`, dbName, err)
	}

	p := &Pebble{pebble: pb, writeOpts: pebbleDB.Sync}
	if config.NoSync {
		p.writeOpts = pebbleDB.NoSync
	}

	constLabels := map[string]string{`name`: name, `type`: `pebble`}
	p.metrics.readLatency = config.MetricsReporter.Observer(
		metrics.MetricConf{Path: `backend_read_latency_microseconds`, ConstLabels: constLabels})
	p.metrics.updateLatency = config.MetricsReporter.Observer(
		metrics.MetricConf{Path: `backend_update_latency_microseconds`, ConstLabels: constLabels})
	return p, nil
}

func (p *Pebble) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	defer func(begin time.Time) {
		p.metrics.readLatency.Observe(float64(time.Since(begin).Nanoseconds()/1e3), nil)
	}(time.Now())

	v, closer, err := p.pebble.Get(key)
	if errors.Is(err, pebbleDB.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	// v is only valid until closer.Close
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (p *Pebble) Set(_ context.Context, key, value []byte) error {
	return p.pebble.Set(key, value, p.writeOpts)
}

func (p *Pebble) Del(_ context.Context, key []byte) error {
	return p.pebble.Delete(key, p.writeOpts)
}

func (p *Pebble) Apply(_ context.Context, ops []host.Op) error {
	if len(ops) == 0 {
		return nil
	}
	defer func(begin time.Time) {
		p.metrics.updateLatency.Observe(float64(time.Since(begin).Nanoseconds()/1e3), nil)
	}(time.Now())

	batch := p.pebble.NewBatch()
	defer batch.Close()
	for _, op := range ops {
		var err error
		if op.Delete {
			err = batch.Delete(op.Key, nil)
		} else {
			err = batch.Set(op.Key, op.Value, nil)
		}
		if err != nil {
			return err
		}
	}

	return p.pebble.Apply(batch, p.writeOpts)
}

func (p *Pebble) Scan(_ context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	opts := &pebbleDB.IterOptions{}
	if len(prefix) > 0 {
		opts.LowerBound = prefix
		opts.UpperBound = keyUpperBound(prefix)
	}
	it := p.pebble.NewIter(opts)
	defer it.Close()

	for valid := it.First(); valid; valid = it.Next() {
		k := append([]byte(nil), it.Key()...)
		v := append([]byte{}, it.Value()...)
		if !fn(k, v) {
			break
		}
	}
	return it.Error()
}

func (p *Pebble) Close(_ context.Context) error {
	return p.pebble.Close()
}

func keyUpperBound(b []byte) []byte {
	end := make([]byte, len(b))
	copy(end, b)
	for i := len(end) - 1; i >= 0; i-- {
		end[i] = end[i] + 1
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // no upper-bound
}
