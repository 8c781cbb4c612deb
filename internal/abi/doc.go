// Package abi is the Type-Descriptor Marshaller: a small, declarative
// description of how fixed-size values are laid out in a byte buffer.
//
// A Descriptor[T] knows its size and how to encode/decode a T at a given
// offset. Primitive descriptors cover the little-endian unsigned integer
// widths WASI structs are built from; Struct and Union compose them into
// the concrete wire types declared in package wasi1.
//
// Descriptors are total: Get and Set never panic for an offset within the
// buffer's bounds, and they are deterministic: encoding the same value twice
// always produces the same bytes. They do no bounds checking of their own: a
// field that would extend past the end of the buffer panics with Go's slice
// bounds error, and the binding surface does not turn that panic into a WASI
// errno.
package abi
