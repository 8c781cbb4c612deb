package wasi1

// This file is the WASI Binding Surface (spec §4.D): it registers one host
// function per wasi_snapshot_preview1 call, decoding parameters out of the
// wazero stack and the guest's linear memory via the §6.2 struct
// descriptors (wire.go), driving a System implementation, and writing
// results back. Every handler is shaped as an asyncify.HostFunc so a single
// generic wrapper (Controller.WrapImport) can suspend any of them.

import (
	"context"
	"errors"

	"github.com/stealthrocket/wasishim/internal/abi"
	"github.com/stealthrocket/wasishim/internal/asyncify"
	"github.com/stealthrocket/wasishim/internal/future"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// isCancellation reports whether err is the context package's own
// cancellation signal, as opposed to an unrecognised provider error that
// must instead abort the invocation per spec §7.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ModuleName is the import module name the guest links WASI calls against.
const ModuleName = "wasi_snapshot_preview1"

// Install registers every wasi_snapshot_preview1 import against sys,
// wrapped through ctrl per spec §4.C, and instantiates the resulting host
// module. Call this, then instantiate the guest importing ModuleName, then
// ctrl.Bind(guestModule) and ctrl.Init(ctx) before running any export.
func Install(ctx context.Context, r wazero.Runtime, sys System, ctrl *asyncify.Controller) (api.Module, error) {
	builder := r.NewHostModuleBuilder(ModuleName)
	for _, f := range bindings(sys) {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ctrl.WrapImport(f.fn), f.params, f.results).
			Export(f.name)
	}
	// proc_exit never returns a value to the guest -- it unwinds the whole
	// invocation by panicking with ExitStatus -- so it bypasses the
	// asyncify wrapper entirely rather than pretend to produce an errno.
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			code := api.DecodeU32(stack[0])
			sys.ProcExit(ctx, code)
			panic(ExitStatus(code))
		}), []api.ValueType{api.ValueTypeI32}, nil).
		Export("proc_exit")
	return builder.Instantiate(ctx)
}

type wasiFunc struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
	fn      asyncify.HostFunc
}

var errnoResult = []api.ValueType{api.ValueTypeI32}

func mem(mod api.Module) []byte {
	m := mod.Memory()
	buf, ok := m.Read(0, m.Size())
	if !ok {
		panic("wasi1: failed to read guest linear memory")
	}
	return buf
}

// resolve adapts a System call's future.Value[T] into the uint64 errno
// asyncify.HostFunc reports, running finish -- which performs any guest
// memory writes -- either immediately or once the value resolves.
func resolve[T any](ctx context.Context, v future.Value[T], finish func(T) uint64) future.Value[uint64] {
	if !v.IsPending() {
		// spec §5 cancellation point (a): an abort signal is consulted
		// before returning success from each WASI call, even one that
		// resolved synchronously.
		if ctx.Err() != nil {
			return future.Ready(uint64(ECANCELED))
		}
		return future.Ready(finish(v.Value()))
	}
	mapped := future.Map(ctx, v.Future(), func(t T, err error) (uint64, error) {
		if err != nil {
			if isCancellation(err) {
				return uint64(ECANCELED), nil
			}
			// Unrecognised error: propagate it so it aborts the whole
			// invocation instead of degrading to a guest-visible errno
			// (spec §7).
			return 0, err
		}
		return finish(t), nil
	})
	return future.ValueOf(ctx, mapped)
}

func resolveErrno(ctx context.Context, v future.Value[Errno]) future.Value[uint64] {
	return resolve(ctx, v, func(e Errno) uint64 { return uint64(e) })
}

func nosys(name string, params ...api.ValueType) wasiFunc {
	return wasiFunc{
		name: name, params: params, results: errnoResult,
		fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
			return future.Ready(uint64(ENOSYS))
		},
	}
}

// writeStrings packs values as a StringCollection (spec §3): argvPtr
// receives one absolute pointer per value, bufPtr the concatenated
// NUL-terminated bytes those pointers reference.
func writeStrings(buf []byte, values []string, argvPtr, bufPtr uint32) {
	offset := uint32(0)
	for i, v := range values {
		abi.U32.Set(buf, argvPtr+4*uint32(i), bufPtr+offset)
		copy(buf[bufPtr+offset:], v)
		buf[bufPtr+offset+uint32(len(v))] = 0
		offset += uint32(len(v)) + 1
	}
}

func toWireFileStat(s FileStat) WireFileStat {
	return WireFileStat{
		FileType:   s.FileType,
		Size:       s.Size,
		AccessTime: s.AccessTime,
		ModTime:    s.ModTime,
		ChangeTime: s.ChangeTime,
	}
}

func bindings(sys System) []wasiFunc {
	i32, i64 := api.ValueTypeI32, api.ValueTypeI64
	return []wasiFunc{
		{
			name: "args_sizes_get", params: []api.ValueType{i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				countPtr, sizePtr := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
				return resolve(ctx, sys.ArgsSizesGet(ctx), func(r SizesResult) uint64 {
					if r.Errno == ESUCCESS {
						buf := mem(mod)
						abi.U32.Set(buf, countPtr, uint32(r.Count))
						abi.U32.Set(buf, sizePtr, uint32(r.Size))
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "args_get", params: []api.ValueType{i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				argvPtr, bufPtr := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
				return resolve(ctx, sys.ArgsGet(ctx), func(r StringsResult) uint64 {
					if r.Errno == ESUCCESS {
						writeStrings(mem(mod), r.Values, argvPtr, bufPtr)
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "environ_sizes_get", params: []api.ValueType{i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				countPtr, sizePtr := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
				return resolve(ctx, sys.EnvironSizesGet(ctx), func(r SizesResult) uint64 {
					if r.Errno == ESUCCESS {
						buf := mem(mod)
						abi.U32.Set(buf, countPtr, uint32(r.Count))
						abi.U32.Set(buf, sizePtr, uint32(r.Size))
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "environ_get", params: []api.ValueType{i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				envPtr, bufPtr := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
				return resolve(ctx, sys.EnvironGet(ctx), func(r StringsResult) uint64 {
					if r.Errno == ESUCCESS {
						writeStrings(mem(mod), r.Values, envPtr, bufPtr)
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "clock_res_get", params: []api.ValueType{i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				id, ptr := ClockID(api.DecodeU32(stack[0])), api.DecodeU32(stack[1])
				return resolve(ctx, sys.ClockResGet(ctx, id), func(r TimeResult) uint64 {
					if r.Errno == ESUCCESS {
						abi.U64.Set(mem(mod), ptr, r.Value)
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "clock_time_get", params: []api.ValueType{i32, i64, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				id, precision, ptr := ClockID(api.DecodeU32(stack[0])), stack[1], api.DecodeU32(stack[2])
				return resolve(ctx, sys.ClockTimeGet(ctx, id, precision), func(r TimeResult) uint64 {
					if r.Errno == ESUCCESS {
						abi.U64.Set(mem(mod), ptr, r.Value)
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "fd_prestat_get", params: []api.ValueType{i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				fd, ptr := FD(api.DecodeU32(stack[0])), api.DecodeU32(stack[1])
				return resolve(ctx, sys.FDPrestatGet(ctx, fd), func(r PrestatResult) uint64 {
					if r.Errno == ESUCCESS {
						PrestatDesc.Set(mem(mod), ptr, Prestat{Type: FileTypeDirectory, NameLen: uint32(len(r.Path))})
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "fd_prestat_dir_name", params: []api.ValueType{i32, i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				fd, pathPtr, pathLen := FD(api.DecodeU32(stack[0])), api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
				return resolve(ctx, sys.FDPrestatGet(ctx, fd), func(r PrestatResult) uint64 {
					if r.Errno != ESUCCESS {
						return uint64(r.Errno)
					}
					if uint32(len(r.Path)) > pathLen {
						return uint64(EINVAL)
					}
					copy(mem(mod)[pathPtr:], r.Path)
					return uint64(ESUCCESS)
				})
			},
		},
		{
			name: "fd_fdstat_get", params: []api.ValueType{i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				fd, ptr := FD(api.DecodeU32(stack[0])), api.DecodeU32(stack[1])
				return resolve(ctx, sys.FDFDStatGet(ctx, fd), func(r FDStatResult) uint64 {
					if r.Errno == ESUCCESS {
						FDStatDesc.Set(mem(mod), ptr, r.Stat)
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "fd_fdstat_set_flags", params: []api.ValueType{i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				fd, flags := FD(api.DecodeU32(stack[0])), FDFlags(api.DecodeU32(stack[1]))
				return resolveErrno(ctx, sys.FDFDStatSetFlags(ctx, fd, flags))
			},
		},
		{
			name: "fd_close", params: []api.ValueType{i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				return resolveErrno(ctx, sys.FDClose(ctx, FD(api.DecodeU32(stack[0]))))
			},
		},
		{
			name: "fd_read", params: []api.ValueType{i32, i32, i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				fd := FD(api.DecodeU32(stack[0]))
				iovsPtr, iovsLen := api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
				nreadPtr := api.DecodeU32(stack[3])
				buf := mem(mod)
				bufs := make([][]byte, iovsLen)
				for i := uint32(0); i < iovsLen; i++ {
					v := IOVecDesc.Get(buf, iovsPtr+i*IOVecDesc.Size)
					bufs[i] = buf[v.BufPtr : v.BufPtr+v.BufLen]
				}
				return resolve(ctx, sys.FDRead(ctx, fd, bufs), func(r ReadResult) uint64 {
					if r.Errno == ESUCCESS {
						abi.U32.Set(buf, nreadPtr, uint32(r.N))
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "fd_write", params: []api.ValueType{i32, i32, i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				fd := FD(api.DecodeU32(stack[0]))
				iovsPtr, iovsLen := api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
				nwrittenPtr := api.DecodeU32(stack[3])
				buf := mem(mod)
				bufs := make([][]byte, iovsLen)
				for i := uint32(0); i < iovsLen; i++ {
					v := IOVecDesc.Get(buf, iovsPtr+i*IOVecDesc.Size)
					bufs[i] = buf[v.BufPtr : v.BufPtr+v.BufLen]
				}
				return resolve(ctx, sys.FDWrite(ctx, fd, bufs), func(r ReadResult) uint64 {
					if r.Errno == ESUCCESS {
						abi.U32.Set(buf, nwrittenPtr, uint32(r.N))
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "fd_seek", params: []api.ValueType{i32, i64, i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				fd := FD(api.DecodeU32(stack[0]))
				offset := int64(stack[1])
				whence := Whence(api.DecodeU32(stack[2]))
				ptr := api.DecodeU32(stack[3])
				return resolve(ctx, sys.FDSeek(ctx, fd, offset, whence), func(r TimeResult) uint64 {
					if r.Errno == ESUCCESS {
						abi.U64.Set(mem(mod), ptr, r.Value)
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "fd_tell", params: []api.ValueType{i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				fd, ptr := FD(api.DecodeU32(stack[0])), api.DecodeU32(stack[1])
				return resolve(ctx, sys.FDTell(ctx, fd), func(r TimeResult) uint64 {
					if r.Errno == ESUCCESS {
						abi.U64.Set(mem(mod), ptr, r.Value)
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "fd_filestat_get", params: []api.ValueType{i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				fd, ptr := FD(api.DecodeU32(stack[0])), api.DecodeU32(stack[1])
				return resolve(ctx, sys.FDFileStatGet(ctx, fd), func(r FileStatResult) uint64 {
					if r.Errno == ESUCCESS {
						FileStatDesc.Set(mem(mod), ptr, toWireFileStat(r.Stat))
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "fd_filestat_set_size", params: []api.ValueType{i32, i64}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				fd, size := FD(api.DecodeU32(stack[0])), stack[1]
				return resolveErrno(ctx, sys.FDFileStatSetSize(ctx, fd, size))
			},
		},
		{
			name: "fd_datasync", params: []api.ValueType{i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				return resolveErrno(ctx, sys.FDDataSync(ctx, FD(api.DecodeU32(stack[0]))))
			},
		},
		{
			name: "fd_sync", params: []api.ValueType{i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				return resolveErrno(ctx, sys.FDSync(ctx, FD(api.DecodeU32(stack[0]))))
			},
		},
		{
			name: "fd_readdir", params: []api.ValueType{i32, i32, i32, i64, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				fd := FD(api.DecodeU32(stack[0]))
				bufPtr, bufLen := api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
				cookie := stack[3]
				usedPtr := api.DecodeU32(stack[4])
				buf := mem(mod)
				fut := readDirLoop(ctx, sys, fd, cookie, buf, bufPtr, bufLen, 0)
				return resolve(ctx, future.ValueOf(ctx, fut), func(r dirWriteResult) uint64 {
					if r.errno == ESUCCESS {
						abi.U32.Set(buf, usedPtr, r.used)
					}
					return uint64(r.errno)
				})
			},
		},
		{
			name: "fd_renumber", params: []api.ValueType{i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				from, to := FD(api.DecodeU32(stack[0])), FD(api.DecodeU32(stack[1]))
				return resolveErrno(ctx, sys.FDRenumber(ctx, from, to))
			},
		},
		{
			name:    "path_open",
			params:  []api.ValueType{i32, i32, i32, i32, i32, i64, i64, i32, i32},
			results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				dirFD := FD(api.DecodeU32(stack[0]))
				pathPtr, pathLen := api.DecodeU32(stack[2]), api.DecodeU32(stack[3])
				oflags := OFlags(api.DecodeU32(stack[4]))
				fsFlags := FDFlags(api.DecodeU32(stack[7]))
				fdPtr := api.DecodeU32(stack[8])
				buf := mem(mod)
				path := string(buf[pathPtr : pathPtr+pathLen])
				return resolve(ctx, sys.PathOpen(ctx, dirFD, path, oflags, fsFlags, oflags.Has(OFlagDirectory)), func(r OpenResult) uint64 {
					if r.Errno == ESUCCESS {
						abi.U32.Set(buf, fdPtr, uint32(r.FD))
					}
					return uint64(r.Errno)
				})
			},
		},
		{
			name: "path_create_directory", params: []api.ValueType{i32, i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				dirFD := FD(api.DecodeU32(stack[0]))
				pathPtr, pathLen := api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
				path := string(mem(mod)[pathPtr : pathPtr+pathLen])
				return resolveErrno(ctx, sys.PathCreateDirectory(ctx, dirFD, path))
			},
		},
		{
			name: "path_remove_directory", params: []api.ValueType{i32, i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				dirFD := FD(api.DecodeU32(stack[0]))
				pathPtr, pathLen := api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
				path := string(mem(mod)[pathPtr : pathPtr+pathLen])
				return resolveErrno(ctx, sys.PathRemoveDirectory(ctx, dirFD, path))
			},
		},
		{
			name: "path_unlink_file", params: []api.ValueType{i32, i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				dirFD := FD(api.DecodeU32(stack[0]))
				pathPtr, pathLen := api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
				path := string(mem(mod)[pathPtr : pathPtr+pathLen])
				return resolveErrno(ctx, sys.PathUnlinkFile(ctx, dirFD, path))
			},
		},
		{
			name: "path_filestat_get", params: []api.ValueType{i32, i32, i32, i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				dirFD := FD(api.DecodeU32(stack[0]))
				pathPtr, pathLen := api.DecodeU32(stack[2]), api.DecodeU32(stack[3])
				ptr := api.DecodeU32(stack[4])
				buf := mem(mod)
				path := string(buf[pathPtr : pathPtr+pathLen])
				return resolve(ctx, sys.PathFileStatGet(ctx, dirFD, path), func(r FileStatResult) uint64 {
					if r.Errno == ESUCCESS {
						FileStatDesc.Set(buf, ptr, toWireFileStat(r.Stat))
					}
					return uint64(r.Errno)
				})
			},
		},
		nosys("path_link", i32, i32, i32, i32, i32, i32, i32),
		nosys("path_symlink", i32, i32, i32, i32, i32),
		nosys("path_readlink", i32, i32, i32, i32, i32, i32),
		nosys("path_rename", i32, i32, i32, i32, i32, i32),
		nosys("path_filestat_set_times", i32, i32, i32, i32, i64, i64, i32),
		{
			name: "poll_oneoff", params: []api.ValueType{i32, i32, i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				subsPtr, eventsPtr := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
				n := api.DecodeU32(stack[2])
				usedPtr := api.DecodeU32(stack[3])
				if n == 0 {
					return future.Ready(uint64(EINVAL))
				}
				buf := mem(mod)
				subs := make([]Subscription, n)
				for i := uint32(0); i < n; i++ {
					subs[i] = SubscriptionDesc.Get(buf, subsPtr+i*SubscriptionDesc.Size)
				}
				return resolve(ctx, sys.PollOneoff(ctx, subs), func(r PollResult) uint64 {
					if r.Errno != ESUCCESS {
						return uint64(r.Errno)
					}
					for i, e := range r.Events {
						EventDesc.Set(buf, eventsPtr+uint32(i)*EventDesc.Size, e)
					}
					abi.U32.Set(buf, usedPtr, uint32(len(r.Events)))
					return uint64(ESUCCESS)
				})
			},
		},
		{
			name: "random_get", params: []api.ValueType{i32, i32}, results: errnoResult,
			fn: func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
				ptr, n := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
				return resolve(ctx, sys.RandomGet(ctx, int(n)), func(r BytesResult) uint64 {
					if r.Errno == ESUCCESS {
						copy(mem(mod)[ptr:], r.Bytes)
					}
					return uint64(r.Errno)
				})
			},
		},
	}
}

// dirWriteResult is the accumulated state of one fd_readdir call: bytes
// written to the guest buffer so far, and the errno to report.
type dirWriteResult struct {
	used  uint32
	errno Errno
}

// readDirLoop fetches one directory entry at a time -- so a cookie is only
// ever advanced past an entry actually written to the guest buffer -- and
// stops as soon as an entry wouldn't fit, per spec §4.D fd_readdir.
func readDirLoop(ctx context.Context, sys System, fd FD, cookie uint64, buf []byte, bufPtr, bufLen, used uint32) *future.Future[dirWriteResult] {
	if err := ctx.Err(); err != nil {
		return future.Done(dirWriteResult{used: used, errno: ECANCELED}, nil)
	}
	v := sys.FDReadDir(ctx, fd, cookie, 1)
	if !v.IsPending() {
		return dirStep(ctx, sys, fd, v.Value(), buf, bufPtr, bufLen, used)
	}
	return future.Then(ctx, v.Future(), func(r ReadDirResult, err error) *future.Future[dirWriteResult] {
		if err != nil {
			if isCancellation(err) {
				return future.Done(dirWriteResult{used: used, errno: ECANCELED}, nil)
			}
			return future.Done(dirWriteResult{}, err)
		}
		return dirStep(ctx, sys, fd, r, buf, bufPtr, bufLen, used)
	})
}

func dirStep(ctx context.Context, sys System, fd FD, r ReadDirResult, buf []byte, bufPtr, bufLen, used uint32) *future.Future[dirWriteResult] {
	if r.Errno != ESUCCESS {
		return future.Done(dirWriteResult{used: used, errno: r.Errno}, nil)
	}
	if len(r.Entries) == 0 {
		return future.Done(dirWriteResult{used: used, errno: ESUCCESS}, nil)
	}
	e := r.Entries[0]
	need := DirentDesc.Size + uint32(len(e.Name))
	if used+need > bufLen {
		return future.Done(dirWriteResult{used: used, errno: ESUCCESS}, nil)
	}
	DirentDesc.Set(buf, bufPtr+used, Dirent{Next: r.Cookie, Ino: 0, NameLen: uint32(len(e.Name)), Type: e.Type})
	copy(buf[bufPtr+used+DirentDesc.Size:], e.Name)
	used += need
	return readDirLoop(ctx, sys, fd, r.Cookie, buf, bufPtr, bufLen, used)
}
