package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack is a Codec that serializes values using vmihailenco/msgpack/v5.
// The zero value is ready to use. Map keys are sorted on encode so equal
// values always produce equal slot bytes.
//
// Use `msgpack:"fieldName"` tags if you need explicit control.
type Msgpack[V any] struct {
	Strict bool // reject unknown struct fields on decode
}

var _ Codec[struct{}] = Msgpack[struct{}]{}

func (Msgpack[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields(c.Strict)
	err := dec.Decode(&v)
	return v, err
}
