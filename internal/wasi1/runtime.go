package wasi1

import (
	"context"
	"crypto/rand"
	"errors"
	"sort"
	"time"

	"github.com/stealthrocket/wasishim/internal/fdtable"
	"github.com/stealthrocket/wasishim/internal/fsprovider"
	"github.com/stealthrocket/wasishim/internal/future"
	"github.com/stealthrocket/wasishim/internal/stream"
)

// Runtime is the default System: fd/path operations go through an
// fdtable.Table, argv/environ are fixed at construction, and stdio are
// byte streams matching spec §6.4 (stream.Reader[byte] and
// stream.Writer[byte] happen to share io.Reader/io.Writer's Read/Write
// signatures, so *os.File satisfies both without an adapter).
type Runtime struct {
	Args  []string
	Env   []string
	Stdin stream.Reader[byte]

	stdout stream.Writer[byte]
	stderr stream.Writer[byte]

	Table *fdtable.Table

	started time.Time
}

// NewRuntime builds a Runtime over table, with the given argv, environ and
// stdio streams.
func NewRuntime(args, env []string, stdin stream.Reader[byte], stdout, stderr stream.Writer[byte], table *fdtable.Table) *Runtime {
	return &Runtime{
		Args:    args,
		Env:     env,
		Stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		Table:   table,
		started: time.Now(),
	}
}

func packedSize(values []string) int {
	n := 0
	for _, v := range values {
		n += len(v) + 1
	}
	return n
}

func (r *Runtime) ArgsSizesGet(ctx context.Context) future.Value[SizesResult] {
	return future.Ready(SizesResult{Count: len(r.Args), Size: packedSize(r.Args), Errno: ESUCCESS})
}

func (r *Runtime) ArgsGet(ctx context.Context) future.Value[StringsResult] {
	return future.Ready(StringsResult{Values: r.Args, Errno: ESUCCESS})
}

func (r *Runtime) EnvironSizesGet(ctx context.Context) future.Value[SizesResult] {
	return future.Ready(SizesResult{Count: len(r.Env), Size: packedSize(r.Env), Errno: ESUCCESS})
}

func (r *Runtime) EnvironGet(ctx context.Context) future.Value[StringsResult] {
	return future.Ready(StringsResult{Values: r.Env, Errno: ESUCCESS})
}

// clockResolutionNS is the resolution reported for both clocks (spec §4.D).
const clockResolutionNS = 1_000_000

func (r *Runtime) ClockResGet(ctx context.Context, id ClockID) future.Value[TimeResult] {
	return future.Ready(TimeResult{Value: clockResolutionNS, Errno: ESUCCESS})
}

func (r *Runtime) ClockTimeGet(ctx context.Context, id ClockID, precision uint64) future.Value[TimeResult] {
	var now uint64
	switch id {
	case ClockRealtime:
		now = uint64(time.Now().UnixNano())
	case ClockMonotonic:
		now = uint64(time.Since(r.started).Nanoseconds())
	default:
		return future.Ready(TimeResult{Errno: EINVAL})
	}
	return future.Ready(TimeResult{Value: now, Errno: ESUCCESS})
}

func (r *Runtime) FDPrestatGet(ctx context.Context, fd FD) future.Value[PrestatResult] {
	po, errno := r.Table.GetPreOpen(fd)
	if errno != ESUCCESS {
		return future.Ready(PrestatResult{Errno: errno})
	}
	return future.Ready(PrestatResult{Path: po.Path, Errno: ESUCCESS})
}

func (r *Runtime) FDFDStatGet(ctx context.Context, fd FD) future.Value[FDStatResult] {
	if fd < fdtable.FirstPreopenFD {
		return future.Ready(FDStatResult{Stat: FDStat{FileType: FileTypeCharacterDevice, RightsBase: AllRights, RightsInheriting: AllRights &^ RightSymlinkBits}, Errno: ESUCCESS})
	}
	ft, errno := r.Table.FDType(fd)
	if errno != ESUCCESS {
		return future.Ready(FDStatResult{Errno: errno})
	}
	return future.Ready(FDStatResult{Stat: FDStat{
		FileType:         ft,
		RightsBase:       AllRights,
		RightsInheriting: AllRights &^ RightSymlinkBits,
	}, Errno: ESUCCESS})
}

func (r *Runtime) FDFDStatSetFlags(ctx context.Context, fd FD, flags FDFlags) future.Value[Errno] {
	return future.Ready(ENOSYS)
}

func (r *Runtime) FDClose(ctx context.Context, fd FD) future.Value[Errno] {
	return future.Ready(r.Table.Close(fd))
}

func (r *Runtime) FDRead(ctx context.Context, fd FD, bufs [][]byte) future.Value[ReadResult] {
	if fd == 0 {
		total := 0
		for _, b := range bufs {
			if err := ctx.Err(); err != nil {
				return future.Ready(ReadResult{N: total, Errno: ECANCELED})
			}
			n, err := r.Stdin.Read(b)
			total += n
			if n < len(b) || err != nil {
				break
			}
		}
		return future.Ready(ReadResult{N: total, Errno: ESUCCESS})
	}
	f, errno := r.Table.GetFile(fd)
	if errno != ESUCCESS {
		return future.Ready(ReadResult{Errno: errno})
	}
	result := future.Map(ctx, readVectors(ctx, bufs, f.ReadAt), func(n int, err error) (ReadResult, error) {
		if err != nil {
			errno, ok := translateError(err)
			if !ok {
				return ReadResult{}, err
			}
			return ReadResult{N: n, Errno: errno}, nil
		}
		return ReadResult{N: n, Errno: ESUCCESS}, nil
	})
	return future.ValueOf(ctx, result)
}

func (r *Runtime) FDWrite(ctx context.Context, fd FD, data [][]byte) future.Value[ReadResult] {
	switch fd {
	case 1:
		n, err := writeAll(ctx, r.stdout, data)
		return future.Ready(ReadResult{N: n, Errno: errnoOfWrite(err)})
	case 2:
		n, err := writeAll(ctx, r.stderr, data)
		return future.Ready(ReadResult{N: n, Errno: errnoOfWrite(err)})
	}
	f, errno := r.Table.GetFile(fd)
	if errno != ESUCCESS {
		return future.Ready(ReadResult{Errno: errno})
	}
	result := future.Map(ctx, writeVectors(ctx, data, f.WriteAt), func(n int, err error) (ReadResult, error) {
		if err != nil {
			errno, ok := translateError(err)
			if !ok {
				return ReadResult{}, err
			}
			return ReadResult{N: n, Errno: errno}, nil
		}
		return ReadResult{N: n, Errno: ESUCCESS}, nil
	})
	return future.ValueOf(ctx, result)
}

func errnoOfWrite(err error) Errno {
	switch {
	case err == nil:
		return ESUCCESS
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return ECANCELED
	default:
		return EINVAL
	}
}

func (r *Runtime) FDSeek(ctx context.Context, fd FD, offset int64, whence Whence) future.Value[TimeResult] {
	f, errno := r.Table.GetFile(fd)
	if errno != ESUCCESS {
		return future.Ready(TimeResult{Errno: errno})
	}
	switch whence {
	case WhenceSet, WhenceCurrent:
		base := int64(0)
		if whence == WhenceCurrent {
			base = f.Position
		}
		return future.Ready(seekTo(f, base, offset))
	case WhenceEnd:
		result := future.Map(ctx, f.Handle.GetFile(), func(info fsprovider.FileInfo, err error) (TimeResult, error) {
			if err != nil {
				errno, ok := translateError(err)
				if !ok {
					return TimeResult{}, err
				}
				return TimeResult{Errno: errno}, nil
			}
			return seekTo(f, int64(info.Size), offset), nil
		})
		return future.ValueOf(ctx, result)
	default:
		return future.Ready(TimeResult{Errno: EINVAL})
	}
}

func seekTo(f *fdtable.OpenFile, base, offset int64) TimeResult {
	newPos := base + offset
	if newPos < 0 {
		return TimeResult{Errno: EINVAL}
	}
	f.Seek(newPos)
	return TimeResult{Value: uint64(newPos), Errno: ESUCCESS}
}

func (r *Runtime) FDTell(ctx context.Context, fd FD) future.Value[TimeResult] {
	f, errno := r.Table.GetFile(fd)
	if errno != ESUCCESS {
		return future.Ready(TimeResult{Errno: errno})
	}
	return future.Ready(TimeResult{Value: uint64(f.Position), Errno: ESUCCESS})
}

func getFileStat(info fsprovider.FileInfo, isDir bool) FileStat {
	if isDir {
		return FileStat{FileType: FileTypeDirectory}
	}
	ns := uint64(info.LastModified.UnixNano())
	return FileStat{
		FileType:   FileTypeRegularFile,
		Size:       info.Size,
		AccessTime: ns,
		ModTime:    ns,
		ChangeTime: ns,
	}
}

func (r *Runtime) FDFileStatGet(ctx context.Context, fd FD) future.Value[FileStatResult] {
	if _, errno := r.Table.GetDir(fd); errno == ESUCCESS {
		return future.Ready(FileStatResult{Stat: getFileStat(fsprovider.FileInfo{}, true), Errno: ESUCCESS})
	}
	f, errno := r.Table.GetFile(fd)
	if errno != ESUCCESS {
		return future.Ready(FileStatResult{Errno: errno})
	}
	result := future.Map(ctx, f.Handle.GetFile(), func(info fsprovider.FileInfo, err error) (FileStatResult, error) {
		if err != nil {
			errno, ok := translateError(err)
			if !ok {
				return FileStatResult{}, err
			}
			return FileStatResult{Errno: errno}, nil
		}
		return FileStatResult{Stat: getFileStat(info, false), Errno: ESUCCESS}, nil
	})
	return future.ValueOf(ctx, result)
}

func (r *Runtime) FDFileStatSetSize(ctx context.Context, fd FD, size uint64) future.Value[Errno] {
	f, errno := r.Table.GetFile(fd)
	if errno != ESUCCESS {
		return future.Ready(errno)
	}
	result := future.Map(ctx, f.Handle.SetSize(size), func(_ struct{}, err error) (Errno, error) {
		if err != nil {
			errno, ok := translateError(err)
			if !ok {
				return 0, err
			}
			return errno, nil
		}
		return ESUCCESS, nil
	})
	return future.ValueOf(ctx, result)
}

func (r *Runtime) FDSync(ctx context.Context, fd FD) future.Value[Errno] {
	if fd < fdtable.FirstPreopenFD {
		return future.Ready(ESUCCESS)
	}
	f, errno := r.Table.GetFile(fd)
	if errno != ESUCCESS {
		if _, dirErrno := r.Table.GetDir(fd); dirErrno == ESUCCESS {
			return future.Ready(ESUCCESS)
		}
		return future.Ready(errno)
	}
	result := future.Map(ctx, f.Handle.Flush(), func(_ struct{}, err error) (Errno, error) {
		if err != nil {
			errno, ok := translateError(err)
			if !ok {
				return 0, err
			}
			return errno, nil
		}
		return ESUCCESS, nil
	})
	return future.ValueOf(ctx, result)
}

func (r *Runtime) FDDataSync(ctx context.Context, fd FD) future.Value[Errno] {
	return r.FDSync(ctx, fd)
}

func (r *Runtime) FDReadDir(ctx context.Context, fd FD, cookie uint64, limit int) future.Value[ReadDirResult] {
	dir, errno := r.Table.GetDir(fd)
	if errno != ESUCCESS {
		return future.Ready(ReadDirResult{Errno: errno})
	}
	result := future.Map(ctx, dir.GetEntries(ctx, cookie), func(entries []fsprovider.Entry, err error) (ReadDirResult, error) {
		if err != nil {
			errno, ok := translateError(err)
			if !ok {
				return ReadDirResult{}, err
			}
			return ReadDirResult{Errno: errno}, nil
		}
		if limit >= 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		out := make([]DirEntry, len(entries))
		for i, e := range entries {
			ft := FileTypeRegularFile
			if e.Kind == fsprovider.KindDirectory {
				ft = FileTypeDirectory
			}
			out[i] = DirEntry{Name: e.Name, Type: ft}
		}
		return ReadDirResult{Entries: out, Cookie: cookie + uint64(len(out)), Errno: ESUCCESS}, nil
	})
	return future.ValueOf(ctx, result)
}

func (r *Runtime) FDRenumber(ctx context.Context, from, to FD) future.Value[Errno] {
	return future.Ready(r.Table.Renumber(from, to))
}

func (r *Runtime) PathOpen(ctx context.Context, dirFD FD, path string, oflags OFlags, fsFlags FDFlags, dirFlag bool) future.Value[OpenResult] {
	if fsFlags&^FDFlagNonBlock != 0 {
		return future.Ready(OpenResult{Errno: ENOSYS})
	}
	po, errno := r.Table.GetPreOpen(dirFD)
	if errno != ESUCCESS {
		return future.Ready(OpenResult{Errno: errno})
	}
	opened := future.Map(ctx, r.Table.Open(ctx, po, path, oflags), func(v fdtable.OpenResult, err error) (OpenResult, error) {
		return OpenResult{FD: v.FD, Errno: v.Errno}, err
	})
	return future.ValueOf(ctx, opened)
}

func (r *Runtime) PathCreateDirectory(ctx context.Context, dirFD FD, path string) future.Value[Errno] {
	res := r.PathOpen(ctx, dirFD, path, OFlagCreate|OFlagDirectory|OFlagExclusive, 0, false)
	if !res.IsPending() {
		return future.Ready(res.Value().Errno)
	}
	result := future.Map(ctx, res.Future(), func(v OpenResult, err error) (Errno, error) { return v.Errno, err })
	return future.ValueOf(ctx, result)
}

func (r *Runtime) pathDelete(ctx context.Context, dirFD FD, path string) future.Value[Errno] {
	po, errno := r.Table.GetPreOpen(dirFD)
	if errno != ESUCCESS {
		return future.Ready(errno)
	}
	rel, errno := fdtable.ResolveUnderPreopen(path)
	if errno != ESUCCESS {
		return future.Ready(errno)
	}
	result := future.Map(ctx, po.Provider.Delete(rel), func(_ struct{}, err error) (Errno, error) {
		if err != nil {
			errno, ok := translateError(err)
			if !ok {
				return 0, err
			}
			return errno, nil
		}
		return ESUCCESS, nil
	})
	return future.ValueOf(ctx, result)
}

func (r *Runtime) PathRemoveDirectory(ctx context.Context, dirFD FD, path string) future.Value[Errno] {
	return r.pathDelete(ctx, dirFD, path)
}

func (r *Runtime) PathUnlinkFile(ctx context.Context, dirFD FD, path string) future.Value[Errno] {
	return r.pathDelete(ctx, dirFD, path)
}

func (r *Runtime) PathFileStatGet(ctx context.Context, dirFD FD, path string) future.Value[FileStatResult] {
	po, errno := r.Table.GetPreOpen(dirFD)
	if errno != ESUCCESS {
		return future.Ready(FileStatResult{Errno: errno})
	}
	open := r.Table.Open(ctx, po, path, 0)
	result := future.Then(ctx, open, func(or fdtable.OpenResult, err error) *future.Future[FileStatResult] {
		if err != nil {
			errno, ok := translateError(err)
			if !ok {
				return future.Done(FileStatResult{}, err)
			}
			return future.Done(FileStatResult{Errno: errno}, nil)
		}
		if or.Errno != ESUCCESS {
			return future.Done(FileStatResult{Errno: or.Errno}, nil)
		}
		defer r.Table.Close(or.FD)
		v := r.FDFileStatGet(ctx, or.FD)
		if !v.IsPending() {
			return future.Done(v.Value(), nil)
		}
		return v.Future()
	})
	return future.ValueOf(ctx, result)
}

// pollDeadline is one clock subscription reduced to a wait duration.
type pollDeadline struct {
	sub     Subscription
	waitFor time.Duration
}

func (r *Runtime) PollOneoff(ctx context.Context, subs []Subscription) future.Value[PollResult] {
	if len(subs) == 0 {
		return future.Ready(PollResult{Errno: EINVAL})
	}

	now := time.Now()
	started := r.started

	var events []Event
	var clocks []pollDeadline

	for _, sub := range subs {
		switch sub.Tag {
		case EventTypeClock:
			c := sub.Clock
			var wait time.Duration
			if c.Flags&SubscriptionFlagAbsolute != 0 {
				var base time.Time
				if c.ID == ClockRealtime {
					base = now
				} else {
					base = started
				}
				target := base.Add(time.Duration(c.Timeout))
				wait = time.Until(target)
			} else {
				wait = time.Duration(c.Timeout)
			}
			if wait < 0 {
				wait = 0
			}
			clocks = append(clocks, pollDeadline{sub: sub, waitFor: wait})
		case EventTypeFDRead, EventTypeFDWrite:
			events = append(events, Event{Userdata: sub.Userdata, Error: ENOSYS, Type: sub.Tag})
		}
	}

	if len(events) > 0 {
		return future.Ready(PollResult{Events: events, Errno: ESUCCESS})
	}

	sort.Slice(clocks, func(i, j int) bool { return clocks[i].waitFor < clocks[j].waitFor })
	wait := clocks[0].waitFor + time.Duration(clocks[0].sub.Clock.Precision)
	prefix := 0
	for prefix < len(clocks) && clocks[prefix].waitFor <= wait {
		prefix++
	}
	sleep := clocks[prefix-1].waitFor

	timer := time.NewTimer(sleep)
	f, resolve := future.New[PollResult]()
	go func() {
		select {
		case <-timer.C:
			out := make([]Event, prefix)
			for i := 0; i < prefix; i++ {
				out[i] = Event{Userdata: clocks[i].sub.Userdata, Type: EventTypeClock}
			}
			resolve(PollResult{Events: out, Errno: ESUCCESS}, nil)
		case <-ctx.Done():
			timer.Stop()
			resolve(PollResult{Errno: ECANCELED}, nil)
		}
	}()
	return future.ValueOf(ctx, f)
}

func (r *Runtime) RandomGet(ctx context.Context, n int) future.Value[BytesResult] {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return future.Ready(BytesResult{Errno: EINVAL})
	}
	return future.Ready(BytesResult{Bytes: buf, Errno: ESUCCESS})
}

func (r *Runtime) ProcExit(ctx context.Context, code uint32) future.Value[Errno] {
	return future.Ready(ESUCCESS)
}

// translateError maps a fsprovider error to the WASI errno taxonomy,
// re-exported from fdtable's translation table so every layer agrees. The
// bool return is false when err isn't in the translation table, meaning it
// must propagate as a real error and abort the invocation (spec §7) rather
// than degrade to a guest-visible errno.
func translateError(err error) (Errno, bool) {
	return fdtable.TranslateError(err)
}

// writeAll writes data to w in order, checking ctx between vectors (spec §5
// cancellation at io-vector boundaries), matching writeVectorsFrom's
// file-backed equivalent.
func writeAll(ctx context.Context, w stream.Writer[byte], data [][]byte) (int, error) {
	total := 0
	for _, d := range data {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := w.Write(d)
		total += n
		if err != nil {
			return total, err
		}
		if n < len(d) {
			break
		}
	}
	return total, nil
}

// readVectors reads into bufs in order via readAt, stopping at the first
// short read (spec §4.D fd_read) and checking ctx between vectors (spec §5
// cancellation at io-vector boundaries).
func readVectors(ctx context.Context, bufs [][]byte, readAt func(context.Context, []byte) *future.Future[int]) *future.Future[int] {
	return readVectorsFrom(ctx, bufs, 0, 0, readAt)
}

func readVectorsFrom(ctx context.Context, bufs [][]byte, i, total int, readAt func(context.Context, []byte) *future.Future[int]) *future.Future[int] {
	if i >= len(bufs) {
		return future.Done(total, nil)
	}
	if err := ctx.Err(); err != nil {
		return future.Done(total, err)
	}
	return future.Then(ctx, readAt(ctx, bufs[i]), func(n int, err error) *future.Future[int] {
		if err != nil {
			return future.Done(total, err)
		}
		total += n
		if n < len(bufs[i]) {
			return future.Done(total, nil)
		}
		return readVectorsFrom(ctx, bufs, i+1, total, readAt)
	})
}

func writeVectors(ctx context.Context, bufs [][]byte, writeAt func(context.Context, []byte) *future.Future[int]) *future.Future[int] {
	return writeVectorsFrom(ctx, bufs, 0, 0, writeAt)
}

func writeVectorsFrom(ctx context.Context, bufs [][]byte, i, total int, writeAt func(context.Context, []byte) *future.Future[int]) *future.Future[int] {
	if i >= len(bufs) {
		return future.Done(total, nil)
	}
	if err := ctx.Err(); err != nil {
		return future.Done(total, err)
	}
	return future.Then(ctx, writeAt(ctx, bufs[i]), func(n int, err error) *future.Future[int] {
		if err != nil {
			return future.Done(total, err)
		}
		total += n
		if n < len(bufs[i]) {
			return future.Done(total, nil)
		}
		return writeVectorsFrom(ctx, bufs, i+1, total, writeAt)
	})
}
