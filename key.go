package slotcache

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// KeyLen is the fixed byte length of every storage key.
const KeyLen = 32

// Key addresses exactly one host storage slot.
// Keys compare by value; the zero Key is a valid address.
type Key [KeyLen]byte

// KeyFromBytes copies b into a Key. b must be exactly KeyLen bytes.
func KeyFromBytes(b []byte) (Key, error) {
	var k Key
	if len(b) != KeyLen {
		return k, fmt.Errorf("slotcache: key must be %d bytes, got %d", KeyLen, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// ParseKey decodes a hex encoded key (as produced by Key.String).
func ParseKey(s string) (Key, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Key{}, fmt.Errorf("slotcache: parse key: %w", err)
	}
	return KeyFromBytes(b)
}

// Add returns the key n slots after k.
// The key is treated as a 256-bit big-endian integer and wraps on overflow,
// so the slots of a chunk are contiguous in byte order.
func (k Key) Add(n uint64) Key {
	out := k
	lo := binary.BigEndian.Uint64(out[KeyLen-8:])
	sum := lo + n
	binary.BigEndian.PutUint64(out[KeyLen-8:], sum)
	if sum >= lo {
		return out
	}
	// propagate carry into the upper 24 bytes
	for i := KeyLen - 9; i >= 0; i-- {
		out[i]++
		if out[i] != 0 {
			break
		}
	}
	return out
}

// Bytes returns a copy of the key bytes.
func (k Key) Bytes() []byte {
	b := make([]byte, KeyLen)
	copy(b, k[:])
	return b
}

func (k Key) String() string { return hex.EncodeToString(k[:]) }
