package util

// NamespacedKey prefixes a raw slot key with "<ns>:" so several programs can
// share one backend without their key spaces colliding.
// An empty namespace returns a copy of key.
func NamespacedKey(ns string, key []byte) []byte {
	if ns == "" {
		out := make([]byte, len(key))
		copy(out, key)
		return out
	}
	out := make([]byte, 0, len(ns)+1+len(key))
	out = append(out, ns...)
	out = append(out, ':')
	return append(out, key...)
}

// CloneBytes returns a copy of b that preserves nil-ness.
func CloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
