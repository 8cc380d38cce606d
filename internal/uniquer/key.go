package uniquer

import (
	"encoding/binary"

	"github.com/dchest/siphash"
)

// Fixed siphash key. The hash only has to be consistent within one process;
// it never crosses a trust or persistence boundary.
const (
	hashK0 = 0x6c61747469636531
	hashK1 = 0x756e697175657231
)

// Key accumulates the constructor arguments of a storage object into a byte
// buffer for hashing. Equality of storages is decided separately by the
// caller's isEqual; the key only has to be deterministic.
type Key struct {
	buf []byte
}

// Uint64 appends an unsigned word to the key.
func (k *Key) Uint64(v uint64) *Key {
	k.buf = binary.LittleEndian.AppendUint64(k.buf, v)
	return k
}

// Int64 appends a signed word to the key.
func (k *Key) Int64(v int64) *Key {
	return k.Uint64(uint64(v))
}

// String appends a length-prefixed string to the key. The prefix keeps
// adjacent strings from uniquing together ("ab","c" vs "a","bc").
func (k *Key) String(s string) *Key {
	k.Uint64(uint64(len(s)))
	k.buf = append(k.buf, s...)
	return k
}

// Bytes appends a length-prefixed byte slice to the key.
func (k *Key) Bytes(b []byte) *Key {
	k.Uint64(uint64(len(b)))
	k.buf = append(k.buf, b...)
	return k
}

// Bool appends a boolean to the key.
func (k *Key) Bool(v bool) *Key {
	if v {
		k.buf = append(k.buf, 1)
	} else {
		k.buf = append(k.buf, 0)
	}
	return k
}

// Hash finalizes the key into a 64-bit hash.
func (k *Key) Hash() uint64 {
	return siphash.Hash(hashK0, hashK1, k.buf)
}

// HashWords is a shortcut for hashing a short sequence of words without
// building a Key.
func HashWords(words ...uint64) uint64 {
	buf := make([]byte, 0, len(words)*8)
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint64(buf, w)
	}
	return siphash.Hash(hashK0, hashK1, buf)
}
