// Package fsprovider declares the host-filesystem collaborator contract
// from spec §6.3: the asynchronous, hierarchical directory API that this
// runtime's core consumes but does not implement. Everything in this
// package is an interface (plus the small value types the interface talks
// about); concrete providers live in sibling packages (memfs, osfs) and are
// not part of the core -- they exist so this repo has something real to run
// the invocation driver and its tests against.
package fsprovider

import (
	"errors"
	"time"

	"github.com/stealthrocket/wasishim/internal/future"
)

// Kind distinguishes a file entry from a directory entry.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

// OpenFlags mirror the subset of path_open semantics a provider needs to
// know about to open or create an entry.
type OpenFlags struct {
	Create    bool
	Exclusive bool
	Truncate  bool
	Directory bool
}

// Entry names and types one child of a directory, as produced by iterating
// a DirHandle.
type Entry struct {
	Name string
	Kind Kind
}

// FileInfo is what getFile() reports about a file handle.
type FileInfo struct {
	Size         uint64
	LastModified time.Time
}

// Provider is a mount's root capability: given a path relative to that
// mount, it resolves to a file or directory handle.
type Provider interface {
	// GetFileOrDir resolves relPath against the mount root. kind (KindFile,
	// KindDirectory, or -1 for "either") selects what to create when
	// openFlags create the target; an existing entry may be returned with
	// the other kind, so callers check Handle.Kind. Applying openFlags may
	// create or truncate the target.
	GetFileOrDir(relPath string, kind Kind, openFlags OpenFlags) *future.Future[Handle]

	// Delete removes the entry at relPath. Returns os.ErrNotExist,
	// ErrNotEmpty, os.ErrPermission, or os.ErrInvalid (for a malformed
	// relPath, such as the empty string) as appropriate; the fdtable layer
	// translates these the same way the WASI binding surface translates any
	// other provider error (spec §7).
	Delete(relPath string) *future.Future[struct{}]
}

// Handle is the sum type returned by GetFileOrDir: exactly one of File or
// Dir is non-nil, selected by Kind.
type Handle struct {
	Kind Kind
	File FileHandle
	Dir  DirHandle
}

// FileHandle is a capability over one regular file.
type FileHandle interface {
	GetFile() *future.Future[FileInfo]
	ReadAt(buf []byte, offset int64) *future.Future[int]
	WriteAt(buf []byte, offset int64) *future.Future[int]
	Flush() *future.Future[struct{}]
	SetSize(n uint64) *future.Future[struct{}]
}

// DirHandle is a capability over one directory.
type DirHandle interface {
	// GetEntries returns entries starting at the given 0-based ordinal
	// position. Implementations should make this cheap to call repeatedly
	// with the same or nearby pos, since fd_readdir resumes from whatever
	// cookie the guest last saw.
	GetEntries(pos int) *future.Future[[]Entry]
}

// ErrNotEmpty is returned by Delete when relPath names a non-empty
// directory. It is its own sentinel, distinct from os.ErrInvalid, so
// providers that also return os.ErrInvalid for a genuinely invalid argument
// (memfs.FS.Delete's empty-relPath case, for example) aren't misclassified
// as ENOTEMPTY by fdtable.TranslateError.
var ErrNotEmpty = errors.New("fsprovider: directory not empty")
