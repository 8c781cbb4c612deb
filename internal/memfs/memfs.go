// Package memfs is an in-memory fsprovider.Provider: every file is a byte
// slice and every directory a map of children, listed in name order. It exists so the fd
// table, the WASI binding surface and the invocation driver have a real,
// deterministic filesystem to run against in tests, the way the teacher's
// sandbox package keeps a MemoryFileSystem alongside its host-backed DirFS
// for the same reason.
//
// FS has no internal locking: the asyncify controller that drives it only
// ever has one WASI call in flight per invocation (spec §4.C), so nothing
// calls into a given FS from two goroutines at once. A FS shared across
// concurrent invocations would need its own synchronization; nothing in
// this repository does that today.
package memfs

import (
	"os"
	"sort"
	"time"

	"github.com/stealthrocket/wasishim/internal/fsprovider"
	"github.com/stealthrocket/wasishim/internal/future"
)

type node struct {
	kind     fsprovider.Kind
	data     []byte
	modTime  time.Time
	children map[string]*node
}

func newDir() *node {
	return &node{kind: fsprovider.KindDirectory, children: make(map[string]*node), modTime: time.Now()}
}

func newFile() *node {
	return &node{kind: fsprovider.KindFile, modTime: time.Now()}
}

// FS is a complete in-memory directory tree rooted at "/".
type FS struct {
	root *node
}

// New returns an empty file system containing just the root directory.
func New() *FS {
	return &FS{root: newDir()}
}

// split breaks a clean, slash-separated relative path (as produced by
// fdtable.ResolveUnderPreopen) into its segments; "." yields no segments.
func split(relPath string) []string {
	if relPath == "" || relPath == "." {
		return nil
	}
	var segs []string
	start := 0
	for i := 0; i <= len(relPath); i++ {
		if i == len(relPath) || relPath[i] == '/' {
			if i > start {
				segs = append(segs, relPath[start:i])
			}
			start = i + 1
		}
	}
	return segs
}

// lookup walks segs from dir, returning the parent directory, the final
// segment's name, and the node at that location if it exists.
func lookup(root *node, segs []string) (parent *node, name string, n *node, err error) {
	if len(segs) == 0 {
		return nil, "", root, nil
	}
	dir := root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := dir.children[seg]
		if !ok {
			return nil, "", nil, os.ErrNotExist
		}
		if child.kind != fsprovider.KindDirectory {
			return nil, "", nil, errNotDir
		}
		dir = child
	}
	name = segs[len(segs)-1]
	return dir, name, dir.children[name], nil
}

var errNotDir = &os.PathError{Op: "open", Path: "", Err: os.ErrInvalid}

// GetFileOrDir implements fsprovider.Provider.
func (fsys *FS) GetFileOrDir(relPath string, kind fsprovider.Kind, openFlags fsprovider.OpenFlags) *future.Future[fsprovider.Handle] {
	segs := split(relPath)
	parent, name, n, err := lookup(fsys.root, segs)
	if err != nil {
		return future.Done(fsprovider.Handle{}, err)
	}

	if n == nil {
		if parent == nil || !openFlags.Create {
			return future.Done(fsprovider.Handle{}, os.ErrNotExist)
		}
		n = newFile()
		if kind == fsprovider.KindDirectory {
			n = newDir()
		}
		parent.children[name] = n
	} else if openFlags.Exclusive && openFlags.Create {
		return future.Done(fsprovider.Handle{}, os.ErrExist)
	} else if openFlags.Truncate && n.kind == fsprovider.KindFile {
		n.data = nil
	}

	switch n.kind {
	case fsprovider.KindDirectory:
		return future.Done(fsprovider.Handle{Kind: fsprovider.KindDirectory, Dir: &dirHandle{n}}, nil)
	default:
		return future.Done(fsprovider.Handle{Kind: fsprovider.KindFile, File: &fileHandle{n}}, nil)
	}
}

// Delete implements fsprovider.Provider.
func (fsys *FS) Delete(relPath string) *future.Future[struct{}] {
	segs := split(relPath)
	if len(segs) == 0 {
		return future.Done(struct{}{}, os.ErrInvalid)
	}
	parent, name, n, err := lookup(fsys.root, segs)
	if err != nil {
		return future.Done(struct{}{}, err)
	}
	if n == nil {
		return future.Done(struct{}{}, os.ErrNotExist)
	}
	if n.kind == fsprovider.KindDirectory && len(n.children) > 0 {
		return future.Done(struct{}{}, fsprovider.ErrNotEmpty)
	}
	delete(parent.children, name)
	return future.Done(struct{}{}, nil)
}

type fileHandle struct{ n *node }

func (f *fileHandle) GetFile() *future.Future[fsprovider.FileInfo] {
	return future.Done(fsprovider.FileInfo{Size: uint64(len(f.n.data)), LastModified: f.n.modTime}, nil)
}

func (f *fileHandle) ReadAt(buf []byte, offset int64) *future.Future[int] {
	if offset < 0 || offset >= int64(len(f.n.data)) {
		return future.Done(0, nil)
	}
	n := copy(buf, f.n.data[offset:])
	return future.Done(n, nil)
}

func (f *fileHandle) WriteAt(buf []byte, offset int64) *future.Future[int] {
	end := offset + int64(len(buf))
	if end > int64(len(f.n.data)) {
		grown := make([]byte, end)
		copy(grown, f.n.data)
		f.n.data = grown
	}
	n := copy(f.n.data[offset:end], buf)
	f.n.modTime = time.Now()
	return future.Done(n, nil)
}

func (f *fileHandle) Flush() *future.Future[struct{}] {
	return future.Done(struct{}{}, nil)
}

func (f *fileHandle) SetSize(size uint64) *future.Future[struct{}] {
	switch {
	case uint64(len(f.n.data)) == size:
	case uint64(len(f.n.data)) > size:
		f.n.data = f.n.data[:size]
	default:
		grown := make([]byte, size)
		copy(grown, f.n.data)
		f.n.data = grown
	}
	f.n.modTime = time.Now()
	return future.Done(struct{}{}, nil)
}

type dirHandle struct{ n *node }

func (d *dirHandle) GetEntries(pos int) *future.Future[[]fsprovider.Entry] {
	names := make([]string, 0, len(d.n.children))
	for name := range d.n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	if pos >= len(names) {
		return future.Done[[]fsprovider.Entry](nil, nil)
	}
	entries := make([]fsprovider.Entry, 0, len(names)-pos)
	for _, name := range names[pos:] {
		entries = append(entries, fsprovider.Entry{Name: name, Kind: d.n.children[name].kind})
	}
	return future.Done(entries, nil)
}
