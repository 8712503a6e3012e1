package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// JSON is a Codec backed by encoding/json. The zero value is ready to use.
// Strict rejects unknown object fields, which surfaces schema drift between
// the stored value and V as a decode error instead of silently dropping data.
type JSON[V any] struct {
	Strict bool
}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }

func (c JSON[V]) Decode(b []byte) (V, error) {
	var v V
	dec := json.NewDecoder(bytes.NewReader(b))
	if c.Strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return v, errors.New("codec: trailing data after JSON value")
	}
	return v, nil
}
