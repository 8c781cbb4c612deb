// Package osfs is an fsprovider.Provider backed by a real directory on the
// host: it resolves every relative path by joining it onto one root with
// filepath.Join, with no containment check of its own (symlinks are followed
// by the os.* calls), and issues the matching os.* syscalls, the same operations the
// teacher's sandbox.DirFS wraps for its *at(2)-based implementation. Because
// this package is built on the plain os package rather than the platform
// *at(2) syscalls sandbox.DirFS uses, every call runs in its own goroutine so
// a slow or blocking syscall can't stall the caller, and so GetFileOrDir's
// future genuinely represents work that may not have finished yet.
package osfs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/stealthrocket/wasishim/internal/fsprovider"
	"github.com/stealthrocket/wasishim/internal/future"
)

// FS roots an fsprovider.Provider at a directory on the host file system.
// relPath arguments are always resolved by fdtable before reaching this
// package, so they arrive already cleaned and "..".-free.
type FS struct {
	Root string
}

// New returns a Provider rooted at dir, which must already exist.
func New(dir string) *FS {
	return &FS{Root: dir}
}

func (fsys *FS) join(relPath string) string {
	if relPath == "" || relPath == "." {
		return fsys.Root
	}
	return filepath.Join(fsys.Root, relPath)
}

func run[T any](fn func() (T, error)) *future.Future[T] {
	f, resolve := future.New[T]()
	go resolve(fn())
	return f
}

// GetFileOrDir implements fsprovider.Provider.
func (fsys *FS) GetFileOrDir(relPath string, kind fsprovider.Kind, openFlags fsprovider.OpenFlags) *future.Future[fsprovider.Handle] {
	return run(func() (fsprovider.Handle, error) {
		path := fsys.join(relPath)

		if kind == fsprovider.KindDirectory {
			if openFlags.Create {
				err := os.Mkdir(path, 0o755)
				switch {
				case err == nil:
				case os.IsExist(err) && openFlags.Exclusive:
					return fsprovider.Handle{}, os.ErrExist
				case os.IsExist(err):
				default:
					return fsprovider.Handle{}, err
				}
			}
			info, err := os.Stat(path)
			if err != nil {
				return fsprovider.Handle{}, err
			}
			if !info.IsDir() {
				return fsprovider.Handle{}, errNotDir
			}
			return fsprovider.Handle{Kind: fsprovider.KindDirectory, Dir: &dirHandle{path: path}}, nil
		}

		flags := os.O_RDWR
		if openFlags.Create {
			flags |= os.O_CREATE
		}
		if openFlags.Exclusive {
			flags |= os.O_EXCL
		}
		if openFlags.Truncate {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(path, flags, 0o644)
		if err != nil {
			if isDirErr(err) {
				return fsprovider.Handle{Kind: fsprovider.KindDirectory, Dir: &dirHandle{path: path}}, nil
			}
			return fsprovider.Handle{}, err
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return fsprovider.Handle{}, err
		}
		if info.IsDir() {
			f.Close()
			return fsprovider.Handle{Kind: fsprovider.KindDirectory, Dir: &dirHandle{path: path}}, nil
		}
		return fsprovider.Handle{Kind: fsprovider.KindFile, File: &fileHandle{f: f}}, nil
	})
}

// Delete implements fsprovider.Provider.
func (fsys *FS) Delete(relPath string) *future.Future[struct{}] {
	return run(func() (struct{}, error) {
		path := fsys.join(relPath)
		err := os.Remove(path)
		if perr, ok := err.(*os.PathError); ok && perr.Err.Error() == "directory not empty" {
			err = fsprovider.ErrNotEmpty
		}
		return struct{}{}, err
	})
}

var errNotDir = &os.PathError{Op: "open", Path: "", Err: os.ErrInvalid}

func isDirErr(err error) bool {
	perr, ok := err.(*os.PathError)
	return ok && perr.Err.Error() == "is a directory"
}

type fileHandle struct{ f *os.File }

func (h *fileHandle) GetFile() *future.Future[fsprovider.FileInfo] {
	return run(func() (fsprovider.FileInfo, error) {
		info, err := h.f.Stat()
		if err != nil {
			return fsprovider.FileInfo{}, err
		}
		return fsprovider.FileInfo{Size: uint64(info.Size()), LastModified: info.ModTime()}, nil
	})
}

func (h *fileHandle) ReadAt(buf []byte, offset int64) *future.Future[int] {
	return run(func() (int, error) {
		n, err := h.f.ReadAt(buf, offset)
		if err != nil && n > 0 {
			err = nil
		}
		return n, err
	})
}

func (h *fileHandle) WriteAt(buf []byte, offset int64) *future.Future[int] {
	return run(func() (int, error) {
		return h.f.WriteAt(buf, offset)
	})
}

func (h *fileHandle) Flush() *future.Future[struct{}] {
	return run(func() (struct{}, error) {
		return struct{}{}, h.f.Sync()
	})
}

func (h *fileHandle) SetSize(size uint64) *future.Future[struct{}] {
	return run(func() (struct{}, error) {
		return struct{}{}, h.f.Truncate(int64(size))
	})
}

type dirHandle struct{ path string }

func (d *dirHandle) GetEntries(pos int) *future.Future[[]fsprovider.Entry] {
	return run(func() ([]fsprovider.Entry, error) {
		dirents, err := os.ReadDir(d.path)
		if err != nil {
			return nil, err
		}
		sort.Slice(dirents, func(i, j int) bool { return dirents[i].Name() < dirents[j].Name() })
		if pos >= len(dirents) {
			return nil, nil
		}
		entries := make([]fsprovider.Entry, 0, len(dirents)-pos)
		for _, de := range dirents[pos:] {
			kind := fsprovider.KindFile
			if de.IsDir() {
				kind = fsprovider.KindDirectory
			}
			entries = append(entries, fsprovider.Entry{Name: de.Name(), Kind: kind})
		}
		return entries, nil
	})
}
