// Package wasi1 implements the host side of the WASI snapshot_preview1 ABI:
// the System interface that a guest's imports are bound to, the numeric
// errno taxonomy, and the System decorators (Trace) used to observe calls.
//
// wasi1 does not know how guest memory is laid out on the wire; that is the
// job of package abi. It does not know how file descriptors map to open
// files or directories; that is the job of package fdtable. It binds those
// two together and exposes the one surface the asyncify controller wraps.
package wasi1
