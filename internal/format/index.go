package format

import "github.com/pkg/errors"

// Compact index encoding used before VIndexDeprecated:
//
//	byte 0: bit 7 sign, bit 6 continue, bits 0-5 value
//	byte n: bit 7 continue, bits 0-6 value
//
// At most five bytes are used.
const maxCompactIndexLen = 5

// EncodeIndex returns the compact index encoding of v.
func EncodeIndex(v int32) []byte {
	u := int64(v)
	var first byte
	if u < 0 {
		first = 0x80
		u = -u
	}
	first |= byte(u & 0x3F)
	u >>= 6
	out := []byte{first}
	if u == 0 {
		return out
	}
	out[0] |= 0x40
	for u != 0 {
		b := byte(u & 0x7F)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

// DecodeIndex decodes a compact index from next, which yields one byte per
// call. It returns the value and the number of bytes consumed.
func DecodeIndex(next func() (byte, error)) (int32, int, error) {
	b, err := next()
	if err != nil {
		return 0, 0, err
	}
	n := 1
	neg := b&0x80 != 0
	v := int64(b & 0x3F)
	more := b&0x40 != 0
	shift := uint(6)
	for more {
		if n >= maxCompactIndexLen {
			return 0, n, errors.Wrap(ErrUnsupported, "compact index longer than 5 bytes")
		}
		b, err = next()
		if err != nil {
			return 0, n, err
		}
		n++
		v |= int64(b&0x7F) << shift
		shift += 7
		more = b&0x80 != 0
	}
	if neg {
		v = -v
	}
	return int32(v), n, nil
}
