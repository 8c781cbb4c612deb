package wasi1

import "github.com/stealthrocket/wasishim/internal/wasi1types"

// The primitive types below are defined in wasi1types and aliased here so
// that fdtable (which the wasi1 runtime depends on) can use them without
// creating an import cycle back into this package. See wasi1types for docs.

type FD = wasi1types.FD

type Errno = wasi1types.Errno

const (
	ESUCCESS      = wasi1types.ESUCCESS
	EACCES        = wasi1types.EACCES
	EBADF         = wasi1types.EBADF
	ECANCELED     = wasi1types.ECANCELED
	EEXIST        = wasi1types.EEXIST
	EFAULT        = wasi1types.EFAULT
	EINVAL        = wasi1types.EINVAL
	EISDIR        = wasi1types.EISDIR
	ENOENT        = wasi1types.ENOENT
	ENOSYS        = wasi1types.ENOSYS
	ENOTDIR       = wasi1types.ENOTDIR
	ENOTEMPTY     = wasi1types.ENOTEMPTY
	ENOTCAPABLE   = wasi1types.ENOTCAPABLE
)

type ExitStatus = wasi1types.ExitStatus

type FileType = wasi1types.FileType

const (
	FileTypeUnknown         = wasi1types.FileTypeUnknown
	FileTypeCharacterDevice = wasi1types.FileTypeCharacterDevice
	FileTypeDirectory       = wasi1types.FileTypeDirectory
	FileTypeRegularFile     = wasi1types.FileTypeRegularFile
)

type OFlags = wasi1types.OFlags

const (
	OFlagCreate    = wasi1types.OFlagCreate
	OFlagDirectory = wasi1types.OFlagDirectory
	OFlagExclusive = wasi1types.OFlagExclusive
	OFlagTruncate  = wasi1types.OFlagTruncate
)

type FDFlags = wasi1types.FDFlags

const FDFlagNonBlock = wasi1types.FDFlagNonBlock

type Rights = wasi1types.Rights

const (
	AllRights        = wasi1types.AllRights
	RightSymlinkBits = wasi1types.RightSymlinkBits
)

type ClockID = wasi1types.ClockID

const (
	ClockRealtime  = wasi1types.ClockRealtime
	ClockMonotonic = wasi1types.ClockMonotonic
)

type Whence = wasi1types.Whence

const (
	WhenceSet     = wasi1types.WhenceSet
	WhenceCurrent = wasi1types.WhenceCurrent
	WhenceEnd     = wasi1types.WhenceEnd
)

type SubscriptionFlags = wasi1types.SubscriptionFlags

const SubscriptionFlagAbsolute = wasi1types.SubscriptionFlagAbsolute

type EventType = wasi1types.EventType

const (
	EventTypeClock   = wasi1types.EventTypeClock
	EventTypeFDRead  = wasi1types.EventTypeFDRead
	EventTypeFDWrite = wasi1types.EventTypeFDWrite
)

type IOVec = wasi1types.IOVec

type DirEntry = wasi1types.DirEntry

type FileStat = wasi1types.FileStat

type ClockSubscription = wasi1types.ClockSubscription
