package fdtable

import (
	"context"

	"github.com/stealthrocket/wasishim/internal/fsprovider"
	"github.com/stealthrocket/wasishim/internal/future"
)

// OpenFile is a file descriptor's backing state for a regular file (spec
// §3): a host file handle and a byte position. It holds no write buffer;
// every write goes straight to the handle. Position mutation happens in
// fd_read, fd_write and fd_seek.
type OpenFile struct {
	Handle   fsprovider.FileHandle
	Position int64
}

// ReadAt reads into buf starting at the file's current position, advancing
// it by the number of bytes actually read once the read resolves.
func (f *OpenFile) ReadAt(ctx context.Context, buf []byte) *future.Future[int] {
	return future.Map(ctx, f.Handle.ReadAt(buf, f.Position), func(n int, err error) (int, error) {
		if n > 0 {
			f.Position += int64(n)
		}
		return n, err
	})
}

// WriteAt writes buf at the file's current position, advancing it by the
// number of bytes written once the write resolves; writes past the current
// end of file extend it, per spec §3's OpenFile invariant.
func (f *OpenFile) WriteAt(ctx context.Context, buf []byte) *future.Future[int] {
	return future.Map(ctx, f.Handle.WriteAt(buf, f.Position), func(n int, err error) (int, error) {
		if n > 0 {
			f.Position += int64(n)
		}
		return n, err
	})
}

// Seek updates Position to base+offset, where base is derived from whence
// by the caller (binding surface); it never clamps a negative result, per
// spec §4.D fd_seek -- callers must check for negative and return EINVAL.
func (f *OpenFile) Seek(newPosition int64) { f.Position = newPosition }
