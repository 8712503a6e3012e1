package host

import (
	"context"
	"time"

	"github.com/tryfix/metrics"

	"github.com/unkn0wn-root/slotcache"
	"github.com/unkn0wn-root/slotcache/internal/util"
)

// Config configures an Env. Only Backend is required.
type Config struct {
	Backend         Backend
	Namespace       string           // prefixes every backend key; "" = none
	Name            string           // metrics label; "" => "default"
	Logger          slotcache.Logger // if nil, NopLogger is used
	MetricsReporter metrics.Reporter // if nil, metrics.NoopReporter()
}

func (c *Config) parse() {
	if c.Name == `` {
		c.Name = `default`
	}
	if c.Logger == nil {
		c.Logger = slotcache.NopLogger{}
	}
	if c.MetricsReporter == nil {
		c.MetricsReporter = metrics.NoopReporter()
	}
}

// Counters are the metering counts of host calls.
// A clear counts as a write.
type Counters struct {
	Reads  uint64
	Writes uint64
}

// Env is the metered host storage primitive. It implements slotcache.Host:
// every Read, Write and Clear is exactly one metered host call.
//
// Outside Execute, calls go straight to the backend. Inside Execute, writes
// are journaled and only reach the backend when the execution commits.
//
// An Env is single-threaded, like the executions it hosts.
type Env struct {
	backend Backend
	ns      string
	log     slotcache.Logger

	ctx      context.Context
	counters Counters
	journal  *journal

	metrics struct {
		reads         metrics.Counter
		writes        metrics.Counter
		readLatency   metrics.Observer
		writeLatency  metrics.Observer
		commitLatency metrics.Observer
	}
}

var _ slotcache.Host = (*Env)(nil)

func New(cfg Config) (*Env, error) {
	if cfg.Backend == nil {
		return nil, ErrNilBackend
	}
	cfg.parse()

	e := &Env{
		backend: cfg.Backend,
		ns:      cfg.Namespace,
		log:     cfg.Logger,
		ctx:     context.Background(),
	}

	constLabels := map[string]string{`name`: cfg.Name}
	r := cfg.MetricsReporter
	e.metrics.reads = r.Counter(metrics.MetricConf{Path: `host_reads`, ConstLabels: constLabels})
	e.metrics.writes = r.Counter(metrics.MetricConf{Path: `host_writes`, ConstLabels: constLabels})
	e.metrics.readLatency = r.Observer(metrics.MetricConf{Path: `host_read_latency_microseconds`, ConstLabels: constLabels})
	e.metrics.writeLatency = r.Observer(metrics.MetricConf{Path: `host_write_latency_microseconds`, ConstLabels: constLabels})
	e.metrics.commitLatency = r.Observer(metrics.MetricConf{Path: `host_commit_latency_microseconds`, ConstLabels: constLabels})

	if v, ok := cfg.Backend.(Volatile); ok && v.Volatile() {
		e.log.Warn("host backend is volatile; slots may be lost", slotcache.Fields{"name": cfg.Name})
	}
	return e, nil
}

// Backend returns the underlying byte store.
func (e *Env) Backend() Backend { return e.backend }

// Counters returns the host calls made since the last reset.
func (e *Env) Counters() Counters { return e.counters }

// ResetCounters zeroes the metering counters. Execute does this on entry.
func (e *Env) ResetCounters() { e.counters = Counters{} }

func (e *Env) Read(key slotcache.Key) ([]byte, bool) {
	e.counters.Reads++
	e.metrics.reads.Count(1, nil)

	if e.journal != nil {
		if op, ok := e.journal.get(key); ok {
			if op.Delete {
				return nil, false
			}
			return util.CloneBytes(op.Value), true
		}
	}

	defer e.observe(e.metrics.readLatency, time.Now())
	b, ok, err := e.backend.Get(e.ctx, e.rawKey(key))
	if err != nil {
		panic(&HostError{Op: "read", Key: key, Err: err})
	}
	return b, ok
}

func (e *Env) Write(key slotcache.Key, value []byte) {
	e.counters.Writes++
	e.metrics.writes.Count(1, nil)

	if e.journal != nil {
		e.journal.put(key, Op{Value: util.CloneBytes(value)})
		return
	}

	defer e.observe(e.metrics.writeLatency, time.Now())
	if err := e.backend.Set(e.ctx, e.rawKey(key), value); err != nil {
		panic(&HostError{Op: "write", Key: key, Err: err})
	}
}

func (e *Env) Clear(key slotcache.Key) {
	e.counters.Writes++
	e.metrics.writes.Count(1, nil)

	if e.journal != nil {
		e.journal.put(key, Op{Delete: true})
		return
	}

	defer e.observe(e.metrics.writeLatency, time.Now())
	if err := e.backend.Del(e.ctx, e.rawKey(key)); err != nil {
		panic(&HostError{Op: "clear", Key: key, Err: err})
	}
}

// Close closes the backend.
func (e *Env) Close(ctx context.Context) error {
	return e.backend.Close(ctx)
}

func (e *Env) rawKey(key slotcache.Key) []byte {
	return util.NamespacedKey(e.ns, key[:])
}

func (e *Env) observe(o metrics.Observer, begin time.Time) {
	o.Observe(float64(time.Since(begin).Nanoseconds()/1e3), nil)
}
