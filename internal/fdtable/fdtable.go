// Package fdtable implements the Open-File Table (spec §3/§4.B): lifecycle
// and allocation of guest-visible file descriptors, mapping them to
// pre-opened mount roots, open files, or open directories, and resolving
// guest paths against those mounts.
package fdtable

import (
	"fmt"

	"github.com/stealthrocket/wasishim/internal/fsprovider"
	"github.com/stealthrocket/wasishim/internal/wasi1types"
)

// FirstPreopenFD is the first fd assigned to a pre-open; 0, 1 and 2 are
// reserved for stdin/stdout/stderr.
const FirstPreopenFD wasi1types.FD = 3

// PreOpen is one mount: an absolute guest path paired with the provider
// capability for its root.
type PreOpen struct {
	Path     string
	Provider fsprovider.Provider
}

// entry is the tagged sum {PreOpen, OpenFile, OpenDirectory} held per fd,
// matching spec §9's "dynamic dispatch modelled as a tagged sum".
type entry struct {
	preopen *PreOpen
	file    *OpenFile
	dir     *OpenDirectory
}

// Table is the fd table: ordered pre-opens plus a map of dynamic entries.
// fds are allocated lowest-unused-first; the pre-opens occupy
// FirstPreopenFD..FirstPreopenFD+len(preopens)-1 immutably for the lifetime
// of the table.
type Table struct {
	preopens []PreOpen
	entries  map[wasi1types.FD]entry
}

// New builds a Table from an ordered list of pre-opens, assigning them fds
// starting at FirstPreopenFD in the order given.
func New(preopens []PreOpen) *Table {
	t := &Table{
		preopens: preopens,
		entries:  make(map[wasi1types.FD]entry, len(preopens)),
	}
	for i := range preopens {
		fd := FirstPreopenFD + wasi1types.FD(i)
		po := preopens[i]
		t.entries[fd] = entry{preopen: &po}
	}
	return t
}

// GetPreOpen returns the pre-open registered at fd, or EBADF.
func (t *Table) GetPreOpen(fd wasi1types.FD) (*PreOpen, wasi1types.Errno) {
	e, ok := t.entries[fd]
	if !ok || e.preopen == nil {
		return nil, wasi1types.EBADF
	}
	return e.preopen, wasi1types.ESUCCESS
}

// GetFile returns the open file registered at fd, or EBADF/EISDIR.
func (t *Table) GetFile(fd wasi1types.FD) (*OpenFile, wasi1types.Errno) {
	e, ok := t.entries[fd]
	if !ok || (e.file == nil && e.dir == nil) {
		return nil, wasi1types.EBADF
	}
	if e.file == nil {
		return nil, wasi1types.EISDIR
	}
	return e.file, wasi1types.ESUCCESS
}

// GetDir returns the open directory registered at fd, or EBADF/ENOTDIR.
func (t *Table) GetDir(fd wasi1types.FD) (*OpenDirectory, wasi1types.Errno) {
	e, ok := t.entries[fd]
	if !ok || (e.file == nil && e.dir == nil) {
		return nil, wasi1types.EBADF
	}
	if e.dir == nil {
		return nil, wasi1types.ENOTDIR
	}
	return e.dir, wasi1types.ESUCCESS
}

// FDType reports the WASI file type of a live fd, for fd_fdstat_get.
func (t *Table) FDType(fd wasi1types.FD) (wasi1types.FileType, wasi1types.Errno) {
	e, ok := t.entries[fd]
	if !ok {
		return 0, wasi1types.EBADF
	}
	switch {
	case e.preopen != nil, e.dir != nil:
		return wasi1types.FileTypeDirectory, wasi1types.ESUCCESS
	case e.file != nil:
		return wasi1types.FileTypeRegularFile, wasi1types.ESUCCESS
	default:
		return 0, wasi1types.EBADF
	}
}

// allocate returns the lowest unused non-negative fd at or above
// FirstPreopenFD; the caller registers an entry there.
func (t *Table) allocate() wasi1types.FD {
	for fd := FirstPreopenFD; ; fd++ {
		if _, ok := t.entries[fd]; !ok {
			return fd
		}
	}
}

// InsertFile registers an already-opened file and returns its new fd.
func (t *Table) InsertFile(f *OpenFile) wasi1types.FD {
	fd := t.allocate()
	t.entries[fd] = entry{file: f}
	return fd
}

// InsertDir registers an already-opened directory and returns its new fd.
func (t *Table) InsertDir(d *OpenDirectory) wasi1types.FD {
	fd := t.allocate()
	t.entries[fd] = entry{dir: d}
	return fd
}

// Close releases the handle registered at fd and removes the entry. Closing
// a reserved stdio fd (0, 1, 2) or an unregistered fd in that range is a
// no-op success, per spec §4.B.
func (t *Table) Close(fd wasi1types.FD) wasi1types.Errno {
	if fd < FirstPreopenFD {
		return wasi1types.ESUCCESS
	}
	e, ok := t.entries[fd]
	if !ok {
		return wasi1types.EBADF
	}
	if e.preopen != nil {
		return wasi1types.ENOTCAPABLE
	}
	delete(t.entries, fd)
	return wasi1types.ESUCCESS
}

// Renumber closes `to` if present, then relocates `from`'s entry to `to`.
// A pre-open can be neither moved nor replaced: if either fd is a pre-open,
// Renumber returns ENOTCAPABLE and changes nothing.
func (t *Table) Renumber(from, to wasi1types.FD) wasi1types.Errno {
	e, ok := t.entries[from]
	if !ok {
		return wasi1types.EBADF
	}
	if e.preopen != nil || t.entries[to].preopen != nil {
		return wasi1types.ENOTCAPABLE
	}
	delete(t.entries, from)
	t.entries[to] = e
	return wasi1types.ESUCCESS
}

// FindRelPath selects the pre-open whose path is the longest whole-segment
// prefix of absPath and returns the remaining relative path.
func (t *Table) FindRelPath(absPath string) (*PreOpen, string, wasi1types.Errno) {
	var best *PreOpen
	bestLen := -1
	for i := range t.preopens {
		p := &t.preopens[i]
		if isWholeSegmentPrefix(p.Path, absPath) && len(p.Path) > bestLen {
			best, bestLen = p, len(p.Path)
		}
	}
	if best == nil {
		return nil, "", wasi1types.ENOENT
	}
	rel := absPath[len(best.Path):]
	for len(rel) > 0 && rel[0] == '/' {
		rel = rel[1:]
	}
	if rel == "" {
		rel = "."
	}
	return best, rel, wasi1types.ESUCCESS
}

// ResolveUnderPreopen resolves a path relative to a pre-open, rejecting any
// ".." that would escape the mount root.
func ResolveUnderPreopen(relPath string) (string, wasi1types.Errno) {
	segments, escapes := resolveRelative(relPath)
	if escapes {
		return "", wasi1types.ENOTCAPABLE
	}
	return joinSegments(segments), wasi1types.ESUCCESS
}

func (t *Table) String() string {
	return fmt.Sprintf("fdtable{preopens=%d, dynamic=%d}", len(t.preopens), len(t.entries)-len(t.preopens))
}
