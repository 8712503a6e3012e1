// Package badger is a persistent host backend on dgraph-io/badger/v3.
// Commits run in a single badger transaction.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerDB "github.com/dgraph-io/badger/v3"
	"github.com/tryfix/metrics"

	"github.com/unkn0wn-root/slotcache/host"
)

type Config struct {
	StorageDir      string
	InMemory        bool
	SyncWrites      bool
	MetricsReporter metrics.Reporter
}

func NewConfig() *Config {
	conf := new(Config)
	conf.parse()

	return conf
}

func (c *Config) parse() {
	if c.StorageDir == `` {
		c.StorageDir = `storage`
	}

	if c.MetricsReporter == nil {
		c.MetricsReporter = metrics.NoopReporter()
	}
}

type Badger struct {
	db      *badgerDB.DB
	metrics struct {
		readLatency   metrics.Observer
		updateLatency metrics.Observer
	}
}

var (
	_ host.Backend = (*Badger)(nil)
	_ host.Batcher = (*Badger)(nil)
	_ host.Scanner = (*Badger)(nil)
)

func New(name string, config *Config) (*Badger, error) {
	if config == nil {
		config = NewConfig()
	}
	config.parse()

	storageDir := fmt.Sprintf(`%s/backends/badger/%s`, config.StorageDir, name)
	if config.InMemory {
		storageDir = ``
	}
	db, err := badgerDB.Open(badgerDB.DefaultOptions(storageDir).
		WithLoggingLevel(badgerDB.ERROR).
		WithInMemory(config.InMemory).
		WithSyncWrites(config.SyncWrites))
	if err != nil {
		return nil, fmt.Errorf(`badger backend: open %s: %w`, storageDir, err)
	}

	b := &Badger{db: db}
	constLabels := map[string]string{`name`: name, `type`: `badger`}
	b.metrics.readLatency = config.MetricsReporter.Observer(
		metrics.MetricConf{Path: `backend_read_latency_microseconds`, ConstLabels: constLabels})
	b.metrics.updateLatency = config.MetricsReporter.Observer(
		metrics.MetricConf{Path: `backend_update_latency_microseconds`, ConstLabels: constLabels})
	return b, nil
}

func (b *Badger) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	defer func(begin time.Time) {
		b.metrics.readLatency.Observe(float64(time.Since(begin).Nanoseconds()/1e3), nil)
	}(time.Now())

	var v []byte
	var found bool
	err := b.db.View(func(txn *badgerDB.Txn) error {
		itm, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badgerDB.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		v, err = itm.ValueCopy(nil)
		if err != nil {
			return err
		}
		if v == nil {
			v = []byte{}
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, found, nil
}

func (b *Badger) Set(ctx context.Context, key, value []byte) error {
	return b.Apply(ctx, []host.Op{{Key: key, Value: value}})
}

func (b *Badger) Del(ctx context.Context, key []byte) error {
	return b.Apply(ctx, []host.Op{{Key: key, Delete: true}})
}

// Apply writes ops in one transaction. badgerDB.ErrTxnTooBig surfaces as an
// error; nothing is written in that case.
func (b *Badger) Apply(_ context.Context, ops []host.Op) error {
	if len(ops) == 0 {
		return nil
	}
	defer func(begin time.Time) {
		b.metrics.updateLatency.Observe(float64(time.Since(begin).Nanoseconds()/1e3), nil)
	}(time.Now())

	return b.db.Update(func(txn *badgerDB.Txn) error {
		for _, op := range ops {
			var err error
			if op.Delete {
				err = txn.Delete(op.Key)
			} else {
				err = txn.Set(op.Key, op.Value)
			}
			if err != nil && !errors.Is(err, badgerDB.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
}

func (b *Badger) Scan(_ context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	return b.db.View(func(txn *badgerDB.Txn) error {
		opts := badgerDB.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			itm := it.Item()
			v, err := itm.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(itm.KeyCopy(nil), v) {
				return nil
			}
		}
		return nil
	})
}

func (b *Badger) Close(_ context.Context) error {
	return b.db.Close()
}
