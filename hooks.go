package slotcache

// Hooks are lightweight callbacks for high-signal cache events.
// Implementations MUST be cheap and non-blocking; they run inline with
// every cache miss and flush.
type Hooks interface {
	// Loaded fires after a cache miss read index from the host.
	// found reports whether the slot held a value.
	Loaded(key Key, index uint32, found bool)

	// Flushed fires once per SyncChunk.Flush that wrote anything.
	Flushed(key Key, stores, clears int)

	// CodecFailed fires right before a fatal codec panic.
	// op ∈ {"decode", "encode"}
	CodecFailed(key Key, op string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Loaded(Key, uint32, bool)       {}
func (NopHooks) Flushed(Key, int, int)          {}
func (NopHooks) CodecFailed(Key, string, error) {}
