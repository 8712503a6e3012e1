package host

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/slotcache"
)

// journal buffers the writes of one execution in first-write order.
type journal struct {
	index map[slotcache.Key]int
	keys  []slotcache.Key
	ops   []Op
}

func newJournal() *journal {
	return &journal{index: make(map[slotcache.Key]int)}
}

func (j *journal) get(key slotcache.Key) (Op, bool) {
	i, ok := j.index[key]
	if !ok {
		return Op{}, false
	}
	return j.ops[i], true
}

func (j *journal) put(key slotcache.Key, op Op) {
	if i, ok := j.index[key]; ok {
		j.ops[i] = op
		return
	}
	j.index[key] = len(j.ops)
	j.keys = append(j.keys, key)
	j.ops = append(j.ops, op)
}

// Execute runs one execution of a hosted program.
//
// Counters are reset, fn runs against the storage layout rooted at root,
// root is flushed, and every host write made during the execution is then
// committed to the backend in one step. If fn returns an error, a fatal
// storage panic occurs, or ctx is done before commit, nothing reaches the
// backend and an *AbortError is returned.
//
// The commit is atomic only when the backend is a Batcher. Other backends
// receive the writes one at a time, and a failed commit may leave a prefix
// of them applied.
//
// Whenever Execute does not commit, including a failed commit and a foreign
// panic that it re-raises, root is discarded when it implements
// slotcache.Discarder.
//
// root may be nil when the program only uses uncached cells and chunks.
func (e *Env) Execute(ctx context.Context, root slotcache.Flusher, fn func() error) (Counters, error) {
	if e.journal != nil {
		return e.counters, ErrNested
	}

	id := uuid.NewString()
	e.ResetCounters()
	e.ctx = ctx
	e.journal = newJournal()
	var committed bool
	defer func() {
		e.journal = nil
		e.ctx = context.Background()
		if !committed {
			if d, ok := root.(slotcache.Discarder); ok {
				d.Discard()
			}
		}
	}()

	e.log.Debug("execution started", slotcache.Fields{"exec": id})

	if err := e.run(ctx, id, root, fn); err != nil {
		e.log.Warn("execution aborted", slotcache.Fields{
			"exec": id, "err": err, "reads": e.counters.Reads, "writes": e.counters.Writes,
		})
		return e.counters, err
	}

	ops := len(e.journal.ops)
	if err := e.commit(ctx); err != nil {
		e.log.Error("execution commit failed", slotcache.Fields{"exec": id, "err": err, "ops": ops})
		return e.counters, &AbortError{ExecID: id, Cause: err}
	}
	committed = true

	e.log.Debug("execution committed", slotcache.Fields{
		"exec": id, "reads": e.counters.Reads, "writes": e.counters.Writes, "ops": ops,
	})
	return e.counters, nil
}

func (e *Env) run(ctx context.Context, id string, root slotcache.Flusher, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := fatalCause(r)
			if !ok {
				panic(r)
			}
			err = &AbortError{ExecID: id, Cause: cause}
		}
	}()

	if err := fn(); err != nil {
		return &AbortError{ExecID: id, Cause: err}
	}
	if root != nil {
		root.Flush()
	}
	if err := ctx.Err(); err != nil {
		return &AbortError{ExecID: id, Cause: err}
	}
	return nil
}

func (e *Env) commit(ctx context.Context) error {
	if len(e.journal.ops) == 0 {
		return nil
	}
	defer e.observe(e.metrics.commitLatency, time.Now())

	ops := make([]Op, len(e.journal.ops))
	for i, op := range e.journal.ops {
		op.Key = e.rawKey(e.journal.keys[i])
		ops[i] = op
	}

	if err := Apply(ctx, e.backend, ops); err != nil {
		return &HostError{Op: "commit", Err: err}
	}
	return nil
}
