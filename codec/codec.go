// Package codec converts typed slot values to and from the raw bytes the host
// stores. A codec must round-trip: Decode(Encode(v)) equals v. Storage layouts
// outlive a single execution, so prefer codecs with a stable byte form.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
