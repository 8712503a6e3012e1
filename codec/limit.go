package codec

import "fmt"

// Limit wraps another codec to bound slot payload sizes.
// MaxEncode protects the host from oversized writes; MaxDecode protects the
// program from oversized or foreign bytes found at a key.
// A limit <= 0 disables that check.
type Limit[V any] struct {
	// Inner is the underlying codec being wrapped. It must be set.
	Inner     Codec[V]
	MaxEncode int
	MaxDecode int
}

var _ Codec[[]byte] = Limit[[]byte]{}

func (c Limit[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.MaxEncode > 0 && len(b) > c.MaxEncode {
		return nil, fmt.Errorf("codec: encoded payload too large: %d > %d", len(b), c.MaxEncode)
	}
	return b, nil
}

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("codec: payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
