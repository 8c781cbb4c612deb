package wasi1

import (
	"context"
	"fmt"
	"io"

	"github.com/stealthrocket/wasishim/internal/future"
)

// Trace wraps sys so every call is logged to w as it happens and once more
// with its result, strace-style. It is modeled directly on the teacher's
// wasi.Trace(os.Stderr, system) wrapper installed by run.go's -T/--trace
// flag: one decorator implementing the whole System interface, forwarding
// every call and printing around it. When color is set, a call that ends
// in a propagated error (as opposed to a guest-visible errno) is printed in
// red, matching run.go's -T/--trace-color=yes/no flag.
func Trace(w io.Writer, sys System, color bool) System {
	return &traceSystem{w: w, sys: sys, color: color}
}

type traceSystem struct {
	w     io.Writer
	sys   System
	color bool
}

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

func (t *traceSystem) logf(format string, args ...any) {
	fmt.Fprintf(t.w, format+"\n", args...)
}

func (t *traceSystem) errorf(format string, args ...any) {
	if t.color {
		format = ansiRed + format + ansiReset
	}
	t.logf(format, args...)
}

func (t *traceSystem) ArgsSizesGet(ctx context.Context) future.Value[SizesResult] {
	return traceValue(ctx, t, "args_sizes_get()", t.sys.ArgsSizesGet(ctx), func(r SizesResult) any { return r.Errno })
}

func (t *traceSystem) ArgsGet(ctx context.Context) future.Value[StringsResult] {
	return traceValue(ctx, t, "args_get()", t.sys.ArgsGet(ctx), func(r StringsResult) any { return r.Errno })
}

func (t *traceSystem) EnvironSizesGet(ctx context.Context) future.Value[SizesResult] {
	return traceValue(ctx, t, "environ_sizes_get()", t.sys.EnvironSizesGet(ctx), func(r SizesResult) any { return r.Errno })
}

func (t *traceSystem) EnvironGet(ctx context.Context) future.Value[StringsResult] {
	return traceValue(ctx, t, "environ_get()", t.sys.EnvironGet(ctx), func(r StringsResult) any { return r.Errno })
}

func (t *traceSystem) ClockResGet(ctx context.Context, id ClockID) future.Value[TimeResult] {
	return traceValue(ctx, t, fmt.Sprintf("clock_res_get(%v)", id), t.sys.ClockResGet(ctx, id), func(r TimeResult) any { return r.Errno })
}

func (t *traceSystem) ClockTimeGet(ctx context.Context, id ClockID, precision uint64) future.Value[TimeResult] {
	return traceValue(ctx, t, fmt.Sprintf("clock_time_get(%v, %d)", id, precision), t.sys.ClockTimeGet(ctx, id, precision), func(r TimeResult) any { return r.Errno })
}

func (t *traceSystem) FDPrestatGet(ctx context.Context, fd FD) future.Value[PrestatResult] {
	return traceValue(ctx, t, fmt.Sprintf("fd_prestat_get(%d)", fd), t.sys.FDPrestatGet(ctx, fd), func(r PrestatResult) any { return r.Errno })
}

func (t *traceSystem) FDFDStatGet(ctx context.Context, fd FD) future.Value[FDStatResult] {
	return traceValue(ctx, t, fmt.Sprintf("fd_fdstat_get(%d)", fd), t.sys.FDFDStatGet(ctx, fd), func(r FDStatResult) any { return r.Errno })
}

func (t *traceSystem) FDFDStatSetFlags(ctx context.Context, fd FD, flags FDFlags) future.Value[Errno] {
	return traceErrno(ctx, t, fmt.Sprintf("fd_fdstat_set_flags(%d, %v)", fd, flags), t.sys.FDFDStatSetFlags(ctx, fd, flags))
}

func (t *traceSystem) FDClose(ctx context.Context, fd FD) future.Value[Errno] {
	return traceErrno(ctx, t, fmt.Sprintf("fd_close(%d)", fd), t.sys.FDClose(ctx, fd))
}

func (t *traceSystem) FDRead(ctx context.Context, fd FD, bufs [][]byte) future.Value[ReadResult] {
	return traceValue(ctx, t, fmt.Sprintf("fd_read(%d, %d iovecs)", fd, len(bufs)), t.sys.FDRead(ctx, fd, bufs), func(r ReadResult) any { return fmt.Sprintf("n=%d errno=%v", r.N, r.Errno) })
}

func (t *traceSystem) FDWrite(ctx context.Context, fd FD, data [][]byte) future.Value[ReadResult] {
	return traceValue(ctx, t, fmt.Sprintf("fd_write(%d, %d iovecs)", fd, len(data)), t.sys.FDWrite(ctx, fd, data), func(r ReadResult) any { return fmt.Sprintf("n=%d errno=%v", r.N, r.Errno) })
}

func (t *traceSystem) FDSeek(ctx context.Context, fd FD, offset int64, whence Whence) future.Value[TimeResult] {
	return traceValue(ctx, t, fmt.Sprintf("fd_seek(%d, %d, %v)", fd, offset, whence), t.sys.FDSeek(ctx, fd, offset, whence), func(r TimeResult) any { return fmt.Sprintf("pos=%d errno=%v", r.Value, r.Errno) })
}

func (t *traceSystem) FDTell(ctx context.Context, fd FD) future.Value[TimeResult] {
	return traceValue(ctx, t, fmt.Sprintf("fd_tell(%d)", fd), t.sys.FDTell(ctx, fd), func(r TimeResult) any { return r.Errno })
}

func (t *traceSystem) FDFileStatGet(ctx context.Context, fd FD) future.Value[FileStatResult] {
	return traceValue(ctx, t, fmt.Sprintf("fd_filestat_get(%d)", fd), t.sys.FDFileStatGet(ctx, fd), func(r FileStatResult) any { return r.Errno })
}

func (t *traceSystem) FDFileStatSetSize(ctx context.Context, fd FD, size uint64) future.Value[Errno] {
	return traceErrno(ctx, t, fmt.Sprintf("fd_filestat_set_size(%d, %d)", fd, size), t.sys.FDFileStatSetSize(ctx, fd, size))
}

func (t *traceSystem) FDSync(ctx context.Context, fd FD) future.Value[Errno] {
	return traceErrno(ctx, t, fmt.Sprintf("fd_sync(%d)", fd), t.sys.FDSync(ctx, fd))
}

func (t *traceSystem) FDDataSync(ctx context.Context, fd FD) future.Value[Errno] {
	return traceErrno(ctx, t, fmt.Sprintf("fd_datasync(%d)", fd), t.sys.FDDataSync(ctx, fd))
}

func (t *traceSystem) FDReadDir(ctx context.Context, fd FD, cookie uint64, limit int) future.Value[ReadDirResult] {
	return traceValue(ctx, t, fmt.Sprintf("fd_readdir(%d, cookie=%d)", fd, cookie), t.sys.FDReadDir(ctx, fd, cookie, limit), func(r ReadDirResult) any { return fmt.Sprintf("%d entries errno=%v", len(r.Entries), r.Errno) })
}

func (t *traceSystem) FDRenumber(ctx context.Context, from, to FD) future.Value[Errno] {
	return traceErrno(ctx, t, fmt.Sprintf("fd_renumber(%d, %d)", from, to), t.sys.FDRenumber(ctx, from, to))
}

func (t *traceSystem) PathOpen(ctx context.Context, dirFD FD, path string, oflags OFlags, fsFlags FDFlags, dirFlag bool) future.Value[OpenResult] {
	return traceValue(ctx, t, fmt.Sprintf("path_open(%d, %q, %v)", dirFD, path, oflags), t.sys.PathOpen(ctx, dirFD, path, oflags, fsFlags, dirFlag), func(r OpenResult) any { return fmt.Sprintf("fd=%d errno=%v", r.FD, r.Errno) })
}

func (t *traceSystem) PathCreateDirectory(ctx context.Context, dirFD FD, path string) future.Value[Errno] {
	return traceErrno(ctx, t, fmt.Sprintf("path_create_directory(%d, %q)", dirFD, path), t.sys.PathCreateDirectory(ctx, dirFD, path))
}

func (t *traceSystem) PathRemoveDirectory(ctx context.Context, dirFD FD, path string) future.Value[Errno] {
	return traceErrno(ctx, t, fmt.Sprintf("path_remove_directory(%d, %q)", dirFD, path), t.sys.PathRemoveDirectory(ctx, dirFD, path))
}

func (t *traceSystem) PathUnlinkFile(ctx context.Context, dirFD FD, path string) future.Value[Errno] {
	return traceErrno(ctx, t, fmt.Sprintf("path_unlink_file(%d, %q)", dirFD, path), t.sys.PathUnlinkFile(ctx, dirFD, path))
}

func (t *traceSystem) PathFileStatGet(ctx context.Context, dirFD FD, path string) future.Value[FileStatResult] {
	return traceValue(ctx, t, fmt.Sprintf("path_filestat_get(%d, %q)", dirFD, path), t.sys.PathFileStatGet(ctx, dirFD, path), func(r FileStatResult) any { return r.Errno })
}

func (t *traceSystem) PollOneoff(ctx context.Context, subs []Subscription) future.Value[PollResult] {
	return traceValue(ctx, t, fmt.Sprintf("poll_oneoff(%d subs)", len(subs)), t.sys.PollOneoff(ctx, subs), func(r PollResult) any { return fmt.Sprintf("%d events errno=%v", len(r.Events), r.Errno) })
}

func (t *traceSystem) RandomGet(ctx context.Context, n int) future.Value[BytesResult] {
	return traceValue(ctx, t, fmt.Sprintf("random_get(%d)", n), t.sys.RandomGet(ctx, n), func(r BytesResult) any { return r.Errno })
}

func (t *traceSystem) ProcExit(ctx context.Context, code uint32) future.Value[Errno] {
	return traceErrno(ctx, t, fmt.Sprintf("proc_exit(%d)", code), t.sys.ProcExit(ctx, code))
}

// traceValue logs call on entry and its outcome (via describe) once v
// resolves, without blocking the caller any more than v itself would.
func traceValue[T any](ctx context.Context, t *traceSystem, call string, v future.Value[T], describe func(T) any) future.Value[T] {
	t.logf("-> %s", call)
	if !v.IsPending() {
		t.logf("<- %s = %v", call, describe(v.Value()))
		return v
	}
	mapped := future.Map(ctx, v.Future(), func(r T, err error) (T, error) {
		if err != nil {
			t.errorf("<- %s = error: %v", call, err)
		} else {
			t.logf("<- %s = %v", call, describe(r))
		}
		return r, err
	})
	return future.Pending(mapped)
}

func traceErrno(ctx context.Context, t *traceSystem, call string, v future.Value[Errno]) future.Value[Errno] {
	return traceValue(ctx, t, call, v, func(e Errno) any { return e })
}
