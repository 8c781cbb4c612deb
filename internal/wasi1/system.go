package wasi1

import (
	"context"

	"github.com/stealthrocket/wasishim/internal/future"
)

// System is the host-side implementation of WASI snapshot_preview1 that the
// binding surface (functions.go) drives. It is deliberately shaped like
// wasi-go's System interface -- one method per ABI call, context first --
// because that is the contract the rest of this repo's asyncify and
// fd-table packages are built to satisfy, and it lets System
// implementations compose the way the example corpus composes wasi.System
// values (see Trace).
//
// Every method returns a future.Value: implementations that complete
// synchronously return future.Ready(...); implementations whose result
// depends on the asynchronous directory provider (§6.3) return
// future.Pending(...), which the binding surface hands to the asyncify
// controller (package asyncify) to suspend the guest until it resolves.
type System interface {
	ArgsSizesGet(ctx context.Context) future.Value[SizesResult]
	ArgsGet(ctx context.Context) future.Value[StringsResult]
	EnvironSizesGet(ctx context.Context) future.Value[SizesResult]
	EnvironGet(ctx context.Context) future.Value[StringsResult]

	ClockResGet(ctx context.Context, id ClockID) future.Value[TimeResult]
	ClockTimeGet(ctx context.Context, id ClockID, precision uint64) future.Value[TimeResult]

	FDPrestatGet(ctx context.Context, fd FD) future.Value[PrestatResult]
	FDFDStatGet(ctx context.Context, fd FD) future.Value[FDStatResult]
	FDFDStatSetFlags(ctx context.Context, fd FD, flags FDFlags) future.Value[Errno]
	FDClose(ctx context.Context, fd FD) future.Value[Errno]
	FDRead(ctx context.Context, fd FD, bufs [][]byte) future.Value[ReadResult]
	FDWrite(ctx context.Context, fd FD, data [][]byte) future.Value[ReadResult]
	FDSeek(ctx context.Context, fd FD, offset int64, whence Whence) future.Value[TimeResult]
	FDTell(ctx context.Context, fd FD) future.Value[TimeResult]
	FDFileStatGet(ctx context.Context, fd FD) future.Value[FileStatResult]
	FDFileStatSetSize(ctx context.Context, fd FD, size uint64) future.Value[Errno]
	FDSync(ctx context.Context, fd FD) future.Value[Errno]
	FDDataSync(ctx context.Context, fd FD) future.Value[Errno]
	FDReadDir(ctx context.Context, fd FD, cookie uint64, limit int) future.Value[ReadDirResult]
	FDRenumber(ctx context.Context, from, to FD) future.Value[Errno]

	PathOpen(ctx context.Context, dirFD FD, path string, oflags OFlags, fsFlags FDFlags, dirFlag bool) future.Value[OpenResult]
	PathCreateDirectory(ctx context.Context, dirFD FD, path string) future.Value[Errno]
	PathRemoveDirectory(ctx context.Context, dirFD FD, path string) future.Value[Errno]
	PathUnlinkFile(ctx context.Context, dirFD FD, path string) future.Value[Errno]
	PathFileStatGet(ctx context.Context, dirFD FD, path string) future.Value[FileStatResult]

	PollOneoff(ctx context.Context, subs []Subscription) future.Value[PollResult]

	RandomGet(ctx context.Context, n int) future.Value[BytesResult]
	ProcExit(ctx context.Context, code uint32) future.Value[Errno]
}

// Result types bundle a value with the Errno describing whether it is
// valid, since future.Value carries exactly one payload type per method.

type SizesResult struct {
	Count, Size int
	Errno       Errno
}

type StringsResult struct {
	Values []string
	Errno  Errno
}

type TimeResult struct {
	Value uint64
	Errno Errno
}

type PrestatResult struct {
	Path  string
	Errno Errno
}

type FDStatResult struct {
	Stat  FDStat
	Errno Errno
}

type ReadResult struct {
	N     int
	Errno Errno
}

type FileStatResult struct {
	Stat  FileStat
	Errno Errno
}

type ReadDirResult struct {
	Entries []DirEntry
	Cookie  uint64
	Errno   Errno
}

type OpenResult struct {
	FD    FD
	Errno Errno
}

type PollResult struct {
	Events []Event
	Errno  Errno
}

type BytesResult struct {
	Bytes []byte
	Errno Errno
}
