package abi

// UnionArm describes one variant of a tagged union: which tag value selects
// it, how large its payload is, and how to copy that payload in and out of
// *S.
type UnionArm[S any, U comparable] struct {
	Tag    U
	Size   uint32
	encode func(s *S, buf []byte, payloadOffset uint32)
	decode func(s *S, buf []byte, payloadOffset uint32)
}

// UnionArmField declares one arm of a tagged union whose payload is itself a
// Descriptor[T].
func UnionArmField[S any, U comparable, T any](tag U, desc Descriptor[T], get func(*S) T, set func(*S, T)) UnionArm[S, U] {
	return UnionArm[S, U]{
		Tag:  tag,
		Size: desc.Size,
		encode: func(s *S, buf []byte, payloadOffset uint32) {
			desc.Set(buf, payloadOffset, get(s))
		},
		decode: func(s *S, buf []byte, payloadOffset uint32) {
			set(s, desc.Get(buf, payloadOffset))
		},
	}
}

// Union builds a Descriptor for a tagged union: a tag field of enumeration
// type U, followed at payloadOffset by a payload area sized to the largest
// arm. The encoded arm is selected by the current tag value; an unrecognised
// tag encodes/decodes no payload: Get leaves the payload fields at their zero
// value and Set leaves the payload bytes in buf untouched, per spec §4.A.
func Union[S any, U comparable](
	tagOffset uint32, tagDesc Descriptor[U], getTag func(*S) U, setTag func(*S, U),
	payloadOffset uint32, arms ...UnionArm[S, U],
) Descriptor[S] {
	armByTag := make(map[U]UnionArm[S, U], len(arms))
	var maxSize uint32
	for _, a := range arms {
		armByTag[a.Tag] = a
		if a.Size > maxSize {
			maxSize = a.Size
		}
	}
	size := payloadOffset + maxSize
	return Descriptor[S]{
		Size: size,
		Get: func(buf []byte, offset uint32) S {
			var s S
			tag := tagDesc.Get(buf, offset+tagOffset)
			setTag(&s, tag)
			if a, ok := armByTag[tag]; ok {
				a.decode(&s, buf, offset+payloadOffset)
			}
			return s
		},
		Set: func(buf []byte, offset uint32, v S) {
			tag := getTag(&v)
			tagDesc.Set(buf, offset+tagOffset, tag)
			if a, ok := armByTag[tag]; ok {
				a.encode(&v, buf, offset+payloadOffset)
			}
		},
	}
}
