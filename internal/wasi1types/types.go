// Package wasi1types holds the WASI snapshot_preview1 primitive types shared
// between the wasi1 runtime and the fdtable package. It exists as a separate
// leaf package so that fdtable (which wasi1's runtime depends on) can use
// these types without creating an import cycle back into wasi1.
package wasi1types

import "fmt"

// FD is a guest-visible file descriptor.
type FD uint32

// Errno is the WASI snapshot_preview1 error taxonomy. Only the subset of
// codes this runtime can produce are given names; the numeric values match
// the canonical snapshot_preview1 assignment so traces and guest-side errno
// tables agree with any other implementation.
type Errno uint16

const (
	ESUCCESS      Errno = 0
	EACCES        Errno = 2
	EBADF         Errno = 8
	ECANCELED     Errno = 11
	EEXIST        Errno = 20
	EFAULT        Errno = 21
	EINVAL        Errno = 28
	EISDIR        Errno = 31
	ENOENT        Errno = 44
	ENOSYS        Errno = 52
	ENOTDIR       Errno = 54
	ENOTEMPTY     Errno = 55
	ENOTCAPABLE   Errno = 76
)

var errnoNames = map[Errno]string{
	ESUCCESS:    "ESUCCESS",
	EACCES:      "EACCES",
	EBADF:       "EBADF",
	ECANCELED:   "ECANCELED",
	EEXIST:      "EEXIST",
	EFAULT:      "EFAULT",
	EINVAL:      "EINVAL",
	EISDIR:      "EISDIR",
	ENOENT:      "ENOENT",
	ENOSYS:      "ENOSYS",
	ENOTDIR:     "ENOTDIR",
	ENOTEMPTY:   "ENOTEMPTY",
	ENOTCAPABLE: "ENOTCAPABLE",
}

func (e Errno) String() string {
	if name, ok := errnoNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Errno(%d)", uint16(e))
}

// ExitStatus is raised (as a panic) by the proc_exit host function that
// wasi1.Install registers; it propagates out of the export wrapper
// and the run loop, and is caught only by the invocation driver. It is never
// translated to a WASI errno.
type ExitStatus int

func (e ExitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// FileType enumerates the filetype field of fdstat/filestat/dirent.
type FileType uint8

const (
	FileTypeUnknown         FileType = 0
	FileTypeCharacterDevice FileType = 2
	FileTypeDirectory       FileType = 3
	FileTypeRegularFile     FileType = 4
)

// OFlags are the open flags accepted by path_open.
type OFlags uint16

const (
	OFlagCreate    OFlags = 1 << 0
	OFlagDirectory OFlags = 1 << 1
	OFlagExclusive OFlags = 1 << 2
	OFlagTruncate  OFlags = 1 << 3
)

func (f OFlags) Has(flag OFlags) bool { return f&flag != 0 }

// FDFlags are the fdstat flags; this runtime never sets any, since
// non-blocking mode and synchronized-IO flags are out of scope.
type FDFlags uint16

const FDFlagNonBlock FDFlags = 1 << 2

// Rights is the capability bitset reported by fd_fdstat_get. Since this
// runtime does not implement capability-based rights revocation, both the
// base and inheriting rights are reported as "all bits", except that
// symlink-related rights are excluded from the inheriting set per spec
// §4.D fd_fdstat_get.
type Rights uint64

const (
	AllRights        Rights = ^Rights(0)
	RightSymlinkBits Rights = (1 << 24) | (1 << 15) // path_symlink, path_readlink
)

// ClockID identifies which clock a clock_time_get / subscription refers to.
type ClockID uint32

const (
	ClockRealtime  ClockID = 0
	ClockMonotonic ClockID = 1
)

// Whence identifies the origin of an fd_seek.
type Whence uint8

const (
	WhenceSet     Whence = 0
	WhenceCurrent Whence = 1
	WhenceEnd     Whence = 2
)

// SubscriptionFlags distinguish relative from absolute clock timeouts.
type SubscriptionFlags uint16

const SubscriptionFlagAbsolute SubscriptionFlags = 1 << 0

// EventType tags a subscription/event union.
type EventType uint8

const (
	EventTypeClock   EventType = 0
	EventTypeFDRead  EventType = 1
	EventTypeFDWrite EventType = 2
)

// IOVec is a single (ptr,len) scatter/gather buffer descriptor, already
// decoded out of guest memory.
type IOVec struct {
	Ptr uint32
	Len uint32
}

// DirEntry is one entry produced by directory enumeration, independent of
// its wire encoding.
type DirEntry struct {
	Name string
	Type FileType
}

// FileStat is the decoded form of the filestat struct.
type FileStat struct {
	FileType   FileType
	Size       uint64
	AccessTime uint64 // nanoseconds since epoch
	ModTime    uint64
	ChangeTime uint64
}

// ClockSubscription is one decoded `eventtype.clock` subscription.
type ClockSubscription struct {
	Userdata    uint64
	ID          ClockID
	TimeoutNS   uint64
	PrecisionNS uint64
	Flags       SubscriptionFlags
}
