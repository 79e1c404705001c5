// Package buf contains helpers for endian-safe decoding and encoding routines.
package buf

import "encoding/binary"

// ReverseU16 swaps the byte order of v.
func ReverseU16(v uint16) uint16 {
	return v<<8 | v>>8
}

// ReverseU32 swaps the byte order of v.
func ReverseU32(v uint32) uint32 {
	return (v&0x000000FF)<<24 | (v&0x0000FF00)<<8 |
		(v&0x00FF0000)>>8 | (v&0xFF000000)>>24
}

// ReverseU64 swaps the byte order of v.
func ReverseU64(v uint64) uint64 {
	return (v&0x00000000000000FF)<<56 | (v&0x000000000000FF00)<<40 |
		(v&0x0000000000FF0000)<<24 | (v&0x00000000FF000000)<<8 |
		(v&0x000000FF00000000)>>8 | (v&0x0000FF0000000000)>>24 |
		(v&0x00FF000000000000)>>40 | (v&0xFF00000000000000)>>56
}

// U16LE reads a little-endian uint16 from b. Short slices read as 0.
func U16LE(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32LE reads a little-endian uint32 from b. Returns 0 when b is too short.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// U64LE reads a little-endian uint64 from b. Returns 0 when b is too short.
func U64LE(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// U16 decodes a uint16 in the given byte order.
func U16(b []byte, bigEndian bool) uint16 {
	if bigEndian {
		return ReverseU16(U16LE(b))
	}
	return U16LE(b)
}

// U32 decodes a uint32 in the given byte order.
func U32(b []byte, bigEndian bool) uint32 {
	if bigEndian {
		return ReverseU32(U32LE(b))
	}
	return U32LE(b)
}

// U64 decodes a uint64 in the given byte order.
func U64(b []byte, bigEndian bool) uint64 {
	if bigEndian {
		return ReverseU64(U64LE(b))
	}
	return U64LE(b)
}

// PutU16 encodes v into b. Multi-byte values are reversed when bigEndian is set.
// b must hold at least 2 bytes.
func PutU16(b []byte, v uint16, bigEndian bool) {
	if bigEndian {
		v = ReverseU16(v)
	}
	binary.LittleEndian.PutUint16(b, v)
}

// PutU32 encodes v into b. b must hold at least 4 bytes.
func PutU32(b []byte, v uint32, bigEndian bool) {
	if bigEndian {
		v = ReverseU32(v)
	}
	binary.LittleEndian.PutUint32(b, v)
}

// PutU64 encodes v into b. b must hold at least 8 bytes.
func PutU64(b []byte, v uint64, bigEndian bool) {
	if bigEndian {
		v = ReverseU64(v)
	}
	binary.LittleEndian.PutUint64(b, v)
}
