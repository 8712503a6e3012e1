// Package wire frames slot payloads for the remote host protocol.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	version     byte = 1
	kindRecord  byte = 1
	kindBatch   byte = 2
	flagPresent byte = 1 << 0
	flagDelete  byte = 1 << 1
)

var (
	ErrCorrupt = errors.New("slotcache: corrupt frame")
	magic4     = [...]byte{'S', 'L', 'O', 'T'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Record: magic(4) | ver(1) | kind(1=record) | flags(1) | vlen(u32 be) | payload(vlen)
//
// A record carries the result of one slot read. flagPresent distinguishes an
// empty stored value from an empty slot.
func EncodeRecord(present bool, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 1 + 4 + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindRecord)

	var flags byte
	if present {
		flags |= flagPresent
	}
	buf.WriteByte(flags)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeRecord returns a payload that aliases b.
func DecodeRecord(b []byte) (present bool, payload []byte, err error) {
	const hdr = 4 + 1 + 1 + 1 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindRecord {
		return false, nil, ErrCorrupt
	}

	flags := b[6]
	if flags&^flagPresent != 0 {
		return false, nil, ErrCorrupt
	}
	present = flags&flagPresent != 0

	off := 7
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off {
		return false, nil, ErrCorrupt
	}
	if !present && vlen != 0 {
		return false, nil, ErrCorrupt
	}
	return present, b[off : off+vlen], nil
}

// Batch:
//
//	magic(4) | ver(1) | kind(2=batch) | n(u32 be)
//	flags(1) | keyLen(u16 be) | key(keyLen) | vlen(u32 be) | payload(vlen) * n
//
// Items of a batch are either writes or deletes (flagDelete, no payload).
type Item struct {
	Key    []byte
	Value  []byte
	Delete bool
}

func EncodeBatch(items []Item) ([]byte, error) {
	total := 4 + 1 + 1 + 4
	for _, it := range items {
		if l := len(it.Key); l == 0 || l > 0xFFFF {
			return nil, fmt.Errorf("slotcache: invalid key length %d in batch", l)
		}
		if it.Delete && len(it.Value) != 0 {
			return nil, fmt.Errorf("slotcache: delete of %x carries a payload", it.Key)
		}
		total += 1 + 2 + len(it.Key) + 4 + len(it.Value)
	}

	var buf bytes.Buffer
	buf.Grow(total)

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindBatch)

	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint32(u4[:], uint32(len(items)))
	buf.Write(u4[:])

	for _, it := range items {
		var flags byte
		if it.Delete {
			flags |= flagDelete
		}
		buf.WriteByte(flags)

		binary.BigEndian.PutUint16(u2[:], uint16(len(it.Key)))
		buf.Write(u2[:])
		buf.Write(it.Key)

		binary.BigEndian.PutUint32(u4[:], uint32(len(it.Value)))
		buf.Write(u4[:])
		buf.Write(it.Value)
	}

	return buf.Bytes(), nil
}

// DecodeBatch returns items whose keys and payloads alias b.
func DecodeBatch(b []byte) ([]Item, error) {
	const hdr = 4 + 1 + 1 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindBatch {
		return nil, ErrCorrupt
	}

	off := 6

	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	// smallest item is flags + klen + 1 key byte + vlen
	if n < 0 || n > (len(b)-off)/(1+2+1+4) {
		return nil, ErrCorrupt
	}

	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		if off+1+2 > len(b) {
			return nil, ErrCorrupt
		}
		flags := b[off]
		off++
		if flags&^flagDelete != 0 {
			return nil, ErrCorrupt
		}

		klen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if klen <= 0 || klen > len(b)-off {
			return nil, ErrCorrupt
		}
		key := b[off : off+klen]
		off += klen

		if off+4 > len(b) {
			return nil, ErrCorrupt
		}
		vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if vlen < 0 || vlen > len(b)-off {
			return nil, ErrCorrupt
		}
		del := flags&flagDelete != 0
		if del && vlen != 0 {
			return nil, ErrCorrupt
		}

		items = append(items, Item{Key: key, Value: b[off : off+vlen], Delete: del})
		off += vlen
	}

	if off != len(b) {
		return nil, ErrCorrupt
	}
	return items, nil
}
