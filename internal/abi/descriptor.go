package abi

import "encoding/binary"

// Descriptor describes how a fixed-size value of type T is encoded into,
// and decoded from, a byte buffer at a given offset. All multi-byte
// integers are little-endian, matching the guest's linear memory layout.
type Descriptor[T any] struct {
	Size uint32
	Get  func(buf []byte, offset uint32) T
	Set  func(buf []byte, offset uint32, v T)
}

// U8 is the descriptor for an unsigned 8-bit integer.
var U8 = Descriptor[uint8]{
	Size: 1,
	Get:  func(buf []byte, offset uint32) uint8 { return buf[offset] },
	Set:  func(buf []byte, offset uint32, v uint8) { buf[offset] = v },
}

// U16 is the descriptor for a little-endian unsigned 16-bit integer.
var U16 = Descriptor[uint16]{
	Size: 2,
	Get:  func(buf []byte, offset uint32) uint16 { return binary.LittleEndian.Uint16(buf[offset:]) },
	Set:  func(buf []byte, offset uint32, v uint16) { binary.LittleEndian.PutUint16(buf[offset:], v) },
}

// U32 is the descriptor for a little-endian unsigned 32-bit integer.
var U32 = Descriptor[uint32]{
	Size: 4,
	Get:  func(buf []byte, offset uint32) uint32 { return binary.LittleEndian.Uint32(buf[offset:]) },
	Set:  func(buf []byte, offset uint32, v uint32) { binary.LittleEndian.PutUint32(buf[offset:], v) },
}

// U64 is the descriptor for a little-endian unsigned 64-bit integer.
var U64 = Descriptor[uint64]{
	Size: 8,
	Get:  func(buf []byte, offset uint32) uint64 { return binary.LittleEndian.Uint64(buf[offset:]) },
	Set:  func(buf []byte, offset uint32, v uint64) { binary.LittleEndian.PutUint64(buf[offset:], v) },
}

// Enum8, Enum16, Enum32 and Enum64 adapt an integer Descriptor to a named
// enumeration type E of the matching width. They decode/encode as the
// underlying integer and never validate that the value is one of the type's
// declared enumerators -- callers compare the raw decoded value against
// enumerator constants, per spec §4.A.
func Enum8[E ~uint8](base Descriptor[uint8]) Descriptor[E] {
	return Descriptor[E]{
		Size: base.Size,
		Get:  func(buf []byte, offset uint32) E { return E(base.Get(buf, offset)) },
		Set:  func(buf []byte, offset uint32, v E) { base.Set(buf, offset, uint8(v)) },
	}
}

func Enum16[E ~uint16](base Descriptor[uint16]) Descriptor[E] {
	return Descriptor[E]{
		Size: base.Size,
		Get:  func(buf []byte, offset uint32) E { return E(base.Get(buf, offset)) },
		Set:  func(buf []byte, offset uint32, v E) { base.Set(buf, offset, uint16(v)) },
	}
}

func Enum32[E ~uint32](base Descriptor[uint32]) Descriptor[E] {
	return Descriptor[E]{
		Size: base.Size,
		Get:  func(buf []byte, offset uint32) E { return E(base.Get(buf, offset)) },
		Set:  func(buf []byte, offset uint32, v E) { base.Set(buf, offset, uint32(v)) },
	}
}

func Enum64[E ~uint64](base Descriptor[uint64]) Descriptor[E] {
	return Descriptor[E]{
		Size: base.Size,
		Get:  func(buf []byte, offset uint32) E { return E(base.Get(buf, offset)) },
		Set:  func(buf []byte, offset uint32, v E) { base.Set(buf, offset, uint64(v)) },
	}
}

// Field is one named member of a Struct descriptor: an offset (relative to
// the start of the struct) plus a pair of closures that copy the field's
// value in and out of *S.
type Field[S any] struct {
	Offset uint32
	Size   uint32
	encode func(s *S, buf []byte, base uint32)
	decode func(s *S, buf []byte, base uint32)
}

// StructField declares a field of a Struct descriptor from a Descriptor[T]
// and a pair of accessors identifying where T lives inside S.
func StructField[S any, T any](offset uint32, desc Descriptor[T], get func(*S) T, set func(*S, T)) Field[S] {
	return Field[S]{
		Offset: offset,
		Size:   desc.Size,
		encode: func(s *S, buf []byte, base uint32) { desc.Set(buf, base+offset, get(s)) },
		decode: func(s *S, buf []byte, base uint32) { set(s, desc.Get(buf, base+offset)) },
	}
}

// Struct builds a Descriptor for S out of an ordered list of fields. Fields
// are encoded/decoded in declaration order; the struct's size is the extent
// of its last field, i.e. there is no padding beyond each field's own
// natural alignment, per spec §3/§4.A.
func Struct[S any](fields ...Field[S]) Descriptor[S] {
	var size uint32
	for _, f := range fields {
		if end := f.Offset + f.Size; end > size {
			size = end
		}
	}
	return Descriptor[S]{
		Size: size,
		Get: func(buf []byte, offset uint32) S {
			var s S
			for _, f := range fields {
				f.decode(&s, buf, offset)
			}
			return s
		},
		Set: func(buf []byte, offset uint32, v S) {
			for _, f := range fields {
				f.encode(&v, buf, offset)
			}
		},
	}
}
