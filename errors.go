package slotcache

import (
	"fmt"
)

// CodecError is the panic value raised when a stored value cannot be decoded
// into its declared type (or a value cannot be encoded). Both indicate a
// storage layout or schema mismatch that execution cannot safely continue past.
type CodecError struct {
	Op    string // "decode" or "encode"
	Key   Key
	Index uint32 // slot index for chunks, 0 for cells
	Chunk bool
	Err   error
}

func (e *CodecError) Error() string {
	if e.Chunk {
		return fmt.Sprintf("slotcache: %s failed at chunk %s[%d]: %v", e.Op, e.Key, e.Index, e.Err)
	}
	return fmt.Sprintf("slotcache: %s failed at cell %s: %v", e.Op, e.Key, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }
