package wasi1

import "github.com/stealthrocket/wasishim/internal/abi"

// The structs and descriptors in this file are the §6.2 WASI struct
// layouts. Each Go struct mirrors the field order of its wire counterpart;
// the accompanying Descriptor is built with package abi's combinators and is
// what the binding surface (functions.go) uses to read and write guest
// memory.

// Prestat is the wire layout of `prestat`.
type Prestat struct {
	Type    FileType
	NameLen uint32
}

var PrestatDesc = abi.Struct[Prestat](
	abi.StructField(0, abi.Enum8[FileType](abi.U8), func(p *Prestat) FileType { return p.Type }, func(p *Prestat, v FileType) { p.Type = v }),
	abi.StructField(4, abi.U32, func(p *Prestat) uint32 { return p.NameLen }, func(p *Prestat, v uint32) { p.NameLen = v }),
)

// WireIOVec is the wire layout of `iovec` / `ciovec`.
type WireIOVec struct {
	BufPtr uint32
	BufLen uint32
}

var IOVecDesc = abi.Struct[WireIOVec](
	abi.StructField(0, abi.U32, func(v *WireIOVec) uint32 { return v.BufPtr }, func(v *WireIOVec, x uint32) { v.BufPtr = x }),
	abi.StructField(4, abi.U32, func(v *WireIOVec) uint32 { return v.BufLen }, func(v *WireIOVec, x uint32) { v.BufLen = x }),
)

// FDStat is the wire layout of `fdstat`.
type FDStat struct {
	FileType         FileType
	Flags            FDFlags
	RightsBase       Rights
	RightsInheriting Rights
}

var FDStatDesc = abi.Struct[FDStat](
	abi.StructField(0, abi.Enum8[FileType](abi.U8), func(s *FDStat) FileType { return s.FileType }, func(s *FDStat, v FileType) { s.FileType = v }),
	abi.StructField(2, abi.Enum16[FDFlags](abi.U16), func(s *FDStat) FDFlags { return s.Flags }, func(s *FDStat, v FDFlags) { s.Flags = v }),
	abi.StructField(8, abi.Enum64[Rights](abi.U64), func(s *FDStat) Rights { return s.RightsBase }, func(s *FDStat, v Rights) { s.RightsBase = v }),
	abi.StructField(16, abi.Enum64[Rights](abi.U64), func(s *FDStat) Rights { return s.RightsInheriting }, func(s *FDStat, v Rights) { s.RightsInheriting = v }),
)

// Dirent is the wire layout of `dirent`, not including the variable-length
// name that follows it.
type Dirent struct {
	Next    uint64
	Ino     uint64
	NameLen uint32
	Type    FileType
}

var DirentDesc = abi.Struct[Dirent](
	abi.StructField(0, abi.U64, func(d *Dirent) uint64 { return d.Next }, func(d *Dirent, v uint64) { d.Next = v }),
	abi.StructField(8, abi.U64, func(d *Dirent) uint64 { return d.Ino }, func(d *Dirent, v uint64) { d.Ino = v }),
	abi.StructField(16, abi.U32, func(d *Dirent) uint32 { return d.NameLen }, func(d *Dirent, v uint32) { d.NameLen = v }),
	abi.StructField(20, abi.Enum8[FileType](abi.U8), func(d *Dirent) FileType { return d.Type }, func(d *Dirent, v FileType) { d.Type = v }),
)

// WireFileStat is the wire layout of `filestat`.
type WireFileStat struct {
	Dev        uint64
	Ino        uint64
	FileType   FileType
	NLink      uint64
	Size       uint64
	AccessTime uint64
	ModTime    uint64
	ChangeTime uint64
}

var FileStatDesc = abi.Struct[WireFileStat](
	abi.StructField(0, abi.U64, func(s *WireFileStat) uint64 { return s.Dev }, func(s *WireFileStat, v uint64) { s.Dev = v }),
	abi.StructField(8, abi.U64, func(s *WireFileStat) uint64 { return s.Ino }, func(s *WireFileStat, v uint64) { s.Ino = v }),
	abi.StructField(16, abi.Enum8[FileType](abi.U8), func(s *WireFileStat) FileType { return s.FileType }, func(s *WireFileStat, v FileType) { s.FileType = v }),
	abi.StructField(24, abi.U64, func(s *WireFileStat) uint64 { return s.NLink }, func(s *WireFileStat, v uint64) { s.NLink = v }),
	abi.StructField(32, abi.U64, func(s *WireFileStat) uint64 { return s.Size }, func(s *WireFileStat, v uint64) { s.Size = v }),
	abi.StructField(40, abi.U64, func(s *WireFileStat) uint64 { return s.AccessTime }, func(s *WireFileStat, v uint64) { s.AccessTime = v }),
	abi.StructField(48, abi.U64, func(s *WireFileStat) uint64 { return s.ModTime }, func(s *WireFileStat, v uint64) { s.ModTime = v }),
	abi.StructField(56, abi.U64, func(s *WireFileStat) uint64 { return s.ChangeTime }, func(s *WireFileStat, v uint64) { s.ChangeTime = v }),
)

// SubscriptionClock is the wire layout of `subscription_clock`.
type SubscriptionClock struct {
	ID        ClockID
	Timeout   uint64
	Precision uint64
	Flags     SubscriptionFlags
}

var subscriptionClockDesc = abi.Struct[SubscriptionClock](
	abi.StructField(0, abi.Enum32[ClockID](abi.U32), func(c *SubscriptionClock) ClockID { return c.ID }, func(c *SubscriptionClock, v ClockID) { c.ID = v }),
	abi.StructField(8, abi.U64, func(c *SubscriptionClock) uint64 { return c.Timeout }, func(c *SubscriptionClock, v uint64) { c.Timeout = v }),
	abi.StructField(16, abi.U64, func(c *SubscriptionClock) uint64 { return c.Precision }, func(c *SubscriptionClock, v uint64) { c.Precision = v }),
	abi.StructField(24, abi.Enum16[SubscriptionFlags](abi.U16), func(c *SubscriptionClock) SubscriptionFlags { return c.Flags }, func(c *SubscriptionClock, v SubscriptionFlags) { c.Flags = v }),
)

// SubscriptionFDReadWrite is the wire layout of `subscription_fd_readwrite`.
type SubscriptionFDReadWrite struct {
	FD FD
}

var subscriptionFDReadWriteDesc = abi.Struct[SubscriptionFDReadWrite](
	abi.StructField(0, abi.Enum32[FD](abi.U32), func(r *SubscriptionFDReadWrite) FD { return r.FD }, func(r *SubscriptionFDReadWrite, v FD) { r.FD = v }),
)

// Subscription is the wire layout of `subscription`: a userdata field, a tag,
// then a payload sized to the larger of its two arms.
type Subscription struct {
	Userdata uint64
	Tag      EventType
	Clock    SubscriptionClock
	FDReadWrite SubscriptionFDReadWrite
}

const subscriptionPayloadOffset = 16

// subscriptionUnionDesc handles the tag + payload portion of `subscription`,
// starting at offset 8 (past the leading userdata field).
var subscriptionUnionDesc = abi.Union[Subscription, EventType](
	0, abi.Enum8[EventType](abi.U8),
	func(s *Subscription) EventType { return s.Tag },
	func(s *Subscription, v EventType) { s.Tag = v },
	subscriptionPayloadOffset-8,
	abi.UnionArmField(EventTypeClock, subscriptionClockDesc, func(s *Subscription) SubscriptionClock { return s.Clock }, func(s *Subscription, v SubscriptionClock) { s.Clock = v }),
	abi.UnionArmField(EventTypeFDRead, subscriptionFDReadWriteDesc, func(s *Subscription) SubscriptionFDReadWrite { return s.FDReadWrite }, func(s *Subscription, v SubscriptionFDReadWrite) { s.FDReadWrite = v }),
	abi.UnionArmField(EventTypeFDWrite, subscriptionFDReadWriteDesc, func(s *Subscription) SubscriptionFDReadWrite { return s.FDReadWrite }, func(s *Subscription, v SubscriptionFDReadWrite) { s.FDReadWrite = v }),
)

// SubscriptionDesc is the full `subscription` descriptor: a userdata field
// at offset 0 followed by the tag+payload union at offset 8.
var SubscriptionDesc = abi.Descriptor[Subscription]{
	Size: 8 + subscriptionUnionDesc.Size,
	Get: func(buf []byte, offset uint32) Subscription {
		s := subscriptionUnionDesc.Get(buf, offset+8)
		s.Userdata = abi.U64.Get(buf, offset)
		return s
	},
	Set: func(buf []byte, offset uint32, v Subscription) {
		abi.U64.Set(buf, offset, v.Userdata)
		subscriptionUnionDesc.Set(buf, offset+8, v)
	},
}

// EventFDReadWrite is the `fd_readwrite` payload of an `event`.
type EventFDReadWrite struct {
	NBytes uint64
	Flags  uint16
}

var eventFDReadWriteDesc = abi.Struct[EventFDReadWrite](
	abi.StructField(0, abi.U64, func(e *EventFDReadWrite) uint64 { return e.NBytes }, func(e *EventFDReadWrite, v uint64) { e.NBytes = v }),
	abi.StructField(8, abi.U16, func(e *EventFDReadWrite) uint16 { return e.Flags }, func(e *EventFDReadWrite, v uint16) { e.Flags = v }),
)

// Event is the wire layout of `event`.
type Event struct {
	Userdata    uint64
	Error       Errno
	Type        EventType
	FDReadWrite EventFDReadWrite
}

var EventDesc = abi.Struct[Event](
	abi.StructField(0, abi.U64, func(e *Event) uint64 { return e.Userdata }, func(e *Event, v uint64) { e.Userdata = v }),
	abi.StructField(8, abi.Enum16[Errno](abi.U16), func(e *Event) Errno { return e.Error }, func(e *Event, v Errno) { e.Error = v }),
	abi.StructField(10, abi.Enum8[EventType](abi.U8), func(e *Event) EventType { return e.Type }, func(e *Event, v EventType) { e.Type = v }),
	abi.StructField(16, eventFDReadWriteDesc, func(e *Event) EventFDReadWrite { return e.FDReadWrite }, func(e *Event, v EventFDReadWrite) { e.FDReadWrite = v }),
)
