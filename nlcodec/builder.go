// Copyright 2017 Microsoft. All rights reserved.
// MIT License

// Package nlcodec is the zero-copy Netlink message framer: a Builder that
// writes a single outgoing request directly into a caller-owned scratch
// buffer, and a Buffer that owns a receive-side byte array and yields lazy
// iterators over the messages and attributes inside it.
//
// Both halves work by cursor arithmetic over a flat byte slice rather than
// by building up a tree of objects and serializing it at the end: this
// package never allocates an intermediate object graph for a message.
package nlcodec

import (
	"bytes"
	"encoding/binary"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/Azure/azure-container-networking/nlwire"
	"github.com/Azure/azure-container-networking/wgerr"
)

// reservation records where a nest's 4-byte length header lives so it can be
// patched once the nest is closed.
type reservation struct {
	lenOff int // offset of the nest's NlAttr.Len field
	bodyOf int // offset the nest's payload begins at
}

// Builder accumulates one outgoing Netlink message into a caller-supplied
// scratch slice. The zero value is not usable; construct with NewBuilder.
//
// A Builder is consumed by value at each step (New returns a Builder,
// AttrListStart returns a NestBuilder, AttrListEnd returns the parent
// Builder) so that a caller who forgets to close a nest is left holding a
// NestBuilder instead of a Builder — it will not compile against Sendto.
// Go has no linear types, so a closed-by-construction nest is enforced by
// type shape here, not by the compiler rejecting an unclosed nest outright.
type Builder struct {
	buf    []byte
	cursor int
	hdrOff int
}

// NewBuilder reserves space for the 16-byte main header at the front of
// scratch and returns a Builder whose cursor sits immediately after it.
// scratch must be at least nlwire.SizeofNlMsghdr bytes and should be at
// least nlwire.MaxMessageSize to hold a full message.
func NewBuilder(scratch []byte, msgType uint16, seq uint32) Builder {
	b := Builder{buf: scratch, hdrOff: 0, cursor: nlwire.SizeofNlMsghdr}

	hdr := nlwire.NlMsghdr{
		Len:   uint32(nlwire.SizeofNlMsghdr),
		Type:  msgType,
		Flags: uint16(nlwire.FlagRequest),
		Seq:   seq,
		Pid:   uint32(unix.Getpid()),
	}
	putNlMsghdr(scratch, 0, hdr)

	return b
}

// Generic appends a Generic-Netlink sub-header with version 1.
func (b Builder) Generic(cmd uint8) Builder {
	hdr := nlwire.GenlMsghdr{Cmd: cmd, Version: nlwire.GenlVersion}
	b.buf[b.cursor+0] = hdr.Cmd
	b.buf[b.cursor+1] = hdr.Version
	nlwire.HostEndian.PutUint16(b.buf[b.cursor+2:b.cursor+4], 0) // reserved
	b.cursor += int(nlwire.SizeofGenlmsghdr)
	return b
}

// Ifinfomsg appends a route link sub-header with change_mask = 0xFFFFFFFF.
func (b Builder) Ifinfomsg(family uint8) Builder {
	start := b.cursor
	b.buf[start] = family
	b.buf[start+1] = 0 // padding
	nlwire.HostEndian.PutUint16(b.buf[start+2:start+4], 0)
	nlwire.HostEndian.PutUint32(b.buf[start+4:start+8], 0)
	nlwire.HostEndian.PutUint32(b.buf[start+8:start+12], 0)
	nlwire.HostEndian.PutUint32(b.buf[start+12:start+16], nlwire.ChangeMaskAll)
	b.cursor += nlwire.SizeofIfInfomsg
	return b
}

// Dump sets the dump flag on the main header.
func (b Builder) Dump() Builder {
	flags := nlwire.HostEndian.Uint16(b.buf[6:8])
	flags |= uint16(nlwire.FlagDump)
	nlwire.HostEndian.PutUint16(b.buf[6:8], flags)
	return b
}

// Ack sets the ack flag on the main header, requesting an explicit
// NLMSG_ERROR(0) reply for a non-dump request that otherwise has nothing
// to send back.
func (b Builder) Ack() Builder {
	flags := nlwire.HostEndian.Uint16(b.buf[6:8])
	flags |= uint16(nlwire.FlagAck)
	nlwire.HostEndian.PutUint16(b.buf[6:8], flags)
	return b
}

// Attr appends an attribute whose payload is a fixed-width value: a
// uint8/uint16/uint32, written little-endian regardless of host order, a
// []byte taken as is, or any other fixed-layout value (a C-style struct)
// copied byte for byte in host order via binary.Write.
func (b Builder) Attr(typ uint16, value interface{}) Builder {
	var payload []byte
	switch v := value.(type) {
	case uint8:
		payload = []byte{v}
	case uint16:
		payload = make([]byte, 2)
		binary.LittleEndian.PutUint16(payload, v)
	case uint32:
		payload = make([]byte, 4)
		binary.LittleEndian.PutUint32(payload, v)
	case []byte:
		payload = v
	default:
		var w bytes.Buffer
		if err := binary.Write(&w, nlwire.HostEndian, v); err != nil {
			panic("nlcodec: unsupported fixed-width attribute value type")
		}
		payload = w.Bytes()
	}
	return b.AttrBytes(typ, payload)
}

// AttrBytes appends a single attribute carrying an arbitrary byte payload.
func (b Builder) AttrBytes(typ uint16, value []byte) Builder {
	start := b.cursor
	total := nlwire.SizeofNlAttr + len(value)
	if start+nlwire.Align(total) > len(b.buf) {
		panic("nlcodec: scratch buffer exhausted")
	}

	nlwire.HostEndian.PutUint16(b.buf[start:start+2], uint16(total))
	nlwire.HostEndian.PutUint16(b.buf[start+2:start+4], typ)
	copy(b.buf[start+nlwire.SizeofNlAttr:], value)

	// Zero the alignment padding so stale scratch bytes never leak on the
	// wire (padding is permitted past nla_len, but its content
	// is not specified; zero is the only safe default).
	padStart := start + nlwire.SizeofNlAttr + len(value)
	padEnd := start + nlwire.Align(total)
	for i := padStart; i < padEnd; i++ {
		b.buf[i] = 0
	}

	b.cursor = padEnd
	return b
}

// AttrListStart opens a nested attribute. It reserves the 4-byte attribute
// header, writes the type with the NESTED bit set, records the reservation,
// and returns a NestBuilder positioned right after it. The length is
// patched on closure by AttrListEnd.
func (b Builder) AttrListStart(typ uint16) NestBuilder {
	start := b.cursor
	if start+nlwire.SizeofNlAttr > len(b.buf) {
		panic("nlcodec: scratch buffer exhausted")
	}
	nlwire.HostEndian.PutUint16(b.buf[start+2:start+4], typ|nlwire.AttrNested)

	return NestBuilder{
		buf:    b.buf,
		hdrOff: b.hdrOff,
		cursor: start + nlwire.SizeofNlAttr,
		res:    reservation{lenOff: start, bodyOf: start + nlwire.SizeofNlAttr},
	}
}

// Nested opens a nested attribute, lets build append to it, and closes it,
// returning the parent Builder positioned after the now-closed nest. This
// is the entry point callers outside the package use for arbitrarily deep
// nesting, since Builder and NestBuilder keep their cursor fields private.
func (b Builder) Nested(typ uint16, build func(NestBuilder) NestBuilder) Builder {
	return build(b.AttrListStart(typ)).AttrListEnd()
}

// Sendto finalizes the message (writes the total length into the main
// header) and transmits it to the kernel (pid=0, groups=0), returning the
// number of bytes sent.
func (b Builder) Sendto(fd int) (int, error) {
	nlwire.HostEndian.PutUint32(b.buf[0:4], uint32(b.cursor))

	sa := &unix.SockaddrNetlink{Family: unix.AF_NETLINK}
	if err := unix.Sendto(fd, b.buf[:b.cursor], 0, sa); err != nil {
		if errno, ok := err.(syscall.Errno); ok {
			return 0, wgerr.FromErrno(errno)
		}
		return 0, wgerr.FromIOErr(err)
	}
	return b.cursor, nil
}

// Len reports how many bytes of scratch have been written so far.
func (b Builder) Len() int { return b.cursor }

// Seq returns the sequence number written into the main header.
func (b Builder) Seq() uint32 {
	return nlwire.HostEndian.Uint32(b.buf[8:12])
}

// NestBuilder is the nested counterpart of Builder: it shares the parent's
// buffer and cursor and offers the same attribute-append operations, plus
// AttrListEnd to close the nest and hand control back to the parent.
type NestBuilder struct {
	buf    []byte
	hdrOff int
	cursor int
	res    reservation
}

// Attr appends a fixed-width attribute inside this nest.
func (n NestBuilder) Attr(typ uint16, value interface{}) NestBuilder {
	return NestBuilder{buf: n.buf, hdrOff: n.hdrOff, res: n.res, cursor: Builder{buf: n.buf, cursor: n.cursor}.Attr(typ, value).cursor}
}

// AttrBytes appends a raw-payload attribute inside this nest.
func (n NestBuilder) AttrBytes(typ uint16, value []byte) NestBuilder {
	return NestBuilder{buf: n.buf, hdrOff: n.hdrOff, res: n.res, cursor: Builder{buf: n.buf, cursor: n.cursor}.AttrBytes(typ, value).cursor}
}

// AttrListStart opens a child nest inside this nest.
func (n NestBuilder) AttrListStart(typ uint16) NestBuilder {
	return Builder{buf: n.buf, hdrOff: n.hdrOff, cursor: n.cursor}.AttrListStart(typ)
}

// Nested opens a child nest, lets build append to it, closes it, and
// resumes this nest (not the child's parent Builder) positioned after it —
// the same re-entry helper Builder.Nested provides, for a nest inside a
// nest (a device's peer list of peers, each with its own allowed-ips list).
func (n NestBuilder) Nested(typ uint16, build func(NestBuilder) NestBuilder) NestBuilder {
	closed := build(n.AttrListStart(typ)).AttrListEnd()
	return NestBuilder{buf: closed.buf, hdrOff: closed.hdrOff, cursor: closed.cursor, res: n.res}
}

// AttrListEnd back-patches this nest's length (cursor - nest start) into its
// reserved header (whose type, NESTED bit included, AttrListStart already
// wrote), and returns a Builder positioned after the now-closed nest.
func (n NestBuilder) AttrListEnd() Builder {
	length := n.cursor - n.res.lenOff
	nlwire.HostEndian.PutUint16(n.buf[n.res.lenOff:n.res.lenOff+2], uint16(length))

	padEnd := n.res.lenOff + nlwire.Align(length)
	for i := n.cursor; i < padEnd; i++ {
		n.buf[i] = 0
	}

	return Builder{buf: n.buf, hdrOff: n.hdrOff, cursor: padEnd}
}

// Len reports how many bytes of the parent buffer have been written,
// counting from this nest's start.
func (n NestBuilder) Len() int { return n.cursor - n.res.bodyOf }

func putNlMsghdr(buf []byte, off int, hdr nlwire.NlMsghdr) {
	nlwire.HostEndian.PutUint32(buf[off:off+4], hdr.Len)
	nlwire.HostEndian.PutUint16(buf[off+4:off+6], hdr.Type)
	nlwire.HostEndian.PutUint16(buf[off+6:off+8], hdr.Flags)
	nlwire.HostEndian.PutUint32(buf[off+8:off+12], hdr.Seq)
	nlwire.HostEndian.PutUint32(buf[off+12:off+16], hdr.Pid)
}
