// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package nlcodec

import (
	"io"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/Azure/azure-container-networking/log"
	"github.com/Azure/azure-container-networking/nlwire"
	"github.com/Azure/azure-container-networking/wgerr"
)

// Buffer owns a fixed-capacity receive-side byte array for one socket file
// descriptor's entire lifetime. It does not parse on receive; parsing is
// pull-driven through RecvMsgs.
//
// A Buffer tracks a generation counter that increments on every refill.
// Message and attribute views capture the generation at creation time and
// refuse to resolve bytes once it has moved on — the handle-with-generation
// strategy this package uses for languages without borrow checking. A
// second line of defense, viewOutstanding, makes refill itself fail while a
// view from the current step has not yet been superseded by the next Next()
// call.
type Buffer struct {
	fd     int
	ownsFd bool

	data   []byte
	size   int
	cursor int
	gen    int

	viewOutstanding bool
	sawMulti        bool

	// genFamilyID is the resolved Generic-Netlink family id this buffer's
	// session expects. It is unused when routeFamily is set, in which case
	// messages are dispatched by RTM_NEWLINK/RTM_DELLINK instead.
	genFamilyID uint16
	routeFamily bool
}

// NewBuffer wraps fd in a Buffer with the given capacity (at least
// nlwire.MinBufferSize) dispatching generic-family replies for familyID.
// ownsFd controls whether Close closes the descriptor.
func NewBuffer(fd int, capacity int, familyID uint16, ownsFd bool) *Buffer {
	if capacity < nlwire.MinBufferSize {
		capacity = nlwire.MinBufferSize
	}
	return &Buffer{fd: fd, ownsFd: ownsFd, data: make([]byte, capacity), genFamilyID: familyID}
}

// NewRouteBuffer wraps fd in a Buffer that dispatches route-family link
// messages (RTM_NEWLINK/RTM_DELLINK) instead of a generic family id.
func NewRouteBuffer(fd int, capacity int, ownsFd bool) *Buffer {
	b := NewBuffer(fd, capacity, 0, ownsFd)
	b.routeFamily = true
	return b
}

// Fd returns the underlying socket file descriptor, for use by an external
// readiness loop.
func (b *Buffer) Fd() int { return b.fd }

// Close releases the buffer's resources, closing the fd if owned.
func (b *Buffer) Close() error {
	if !b.ownsFd {
		return nil
	}
	return unix.Close(b.fd)
}

// refill issues one blocking recvfrom and resets the cursor to the start of
// the freshly received datagram.
func (b *Buffer) refill() error {
	if b.viewOutstanding {
		return wgerr.Otherf("nlcodec: cannot receive while an attribute view is outstanding")
	}

	n, _, err := unix.Recvfrom(b.fd, b.data, 0)
	if err != nil {
		if errno, ok := err.(syscall.Errno); ok {
			return wgerr.FromErrno(errno)
		}
		return wgerr.FromIOErr(err)
	}

	b.size = n
	b.cursor = 0
	b.gen++
	return nil
}

// RecvMsgs returns a message-part iterator pulling from this buffer.
func (b *Buffer) RecvMsgs() *MsgIter {
	return &MsgIter{buf: b}
}

// MsgIter is the message-part iterator returned by Buffer.RecvMsgs. Each
// call to Next advances through the buffer, refilling via a blocking
// recvfrom when the current datagram is exhausted.
type MsgIter struct {
	buf             *Buffer
	truncatedInARow int
	// single is set once a data message without NLM_F_MULTI has been
	// yielded: that reply is complete once the buffer is drained.
	single bool
}

// Next yields the next message part, or a terminal condition:
//   - (nil, io.EOF): the multi-part reply completed normally (NLMSG_DONE),
//     or this was a single non-multi reply that has been fully drained.
//   - (nil, err): a structural failure; no further calls to
//     Next on this iterator are meaningful.
//   - (part, nil): one parsed message part, bounding an attribute region
//     the caller may iterate with part.Attributes().
func (it *MsgIter) Next() (*MsgPart, error) {
	// The previous step's view, if any, is implicitly released: the pull
	// model means the caller asking for the next item has finished with
	// the last one.
	it.buf.viewOutstanding = false

	for {
		if it.buf.cursor+nlwire.SizeofNlMsghdr > it.buf.size {
			if it.single {
				return nil, io.EOF
			}
			if err := it.buf.refill(); err != nil {
				return nil, err
			}
		}

		if it.buf.cursor+nlwire.SizeofNlMsghdr > it.buf.size {
			it.truncatedInARow++
			if it.truncatedInARow >= 2 {
				it.buf.cursor = it.buf.size
				return nil, wgerr.ErrTruncated
			}
			continue
		}
		it.truncatedInARow = 0

		msgStart := it.buf.cursor
		hdr := readNlMsghdr(it.buf.data[msgStart:])

		remaining := it.buf.size - msgStart
		if int(hdr.Len) < nlwire.SizeofNlMsghdr || int(hdr.Len) > remaining {
			log.Debugf("[nlcodec] truncated message, nlmsg_len=%d remaining=%d:\n%s", hdr.Len, remaining, nlwire.DumpBuffer(it.buf.data[msgStart:it.buf.size]))
			it.buf.cursor = it.buf.size
			return nil, wgerr.ErrTruncated
		}

		msgEnd := msgStart + int(hdr.Len)
		nextStart := msgStart + nlwire.Align(int(hdr.Len))

		if hdr.Flags&uint16(nlwire.FlagDumpIntr) != 0 {
			it.buf.cursor = nextStart
			return nil, wgerr.ErrInterrupted
		}

		multi := hdr.Flags&uint16(nlwire.FlagMulti) != 0
		if multi {
			it.buf.sawMulti = true
		}

		switch hdr.Type {
		case nlwire.MsgError:
			body := it.buf.data[msgStart+nlwire.SizeofNlMsghdr : msgEnd]
			if len(body) < 4 {
				it.buf.cursor = it.buf.size
				return nil, wgerr.ErrTruncated
			}
			errno := int32(nlwire.HostEndian.Uint32(body[0:4]))
			it.buf.cursor = nextStart
			if errno != 0 {
				return nil, wgerr.FromErrno(syscall.Errno(-errno))
			}
			// Ack: terminates the exchange same as NLMSG_DONE would for a
			// dump, there is nothing further to read for this request.
			return nil, io.EOF

		case nlwire.MsgDone:
			it.buf.cursor = it.buf.size
			if !it.buf.sawMulti {
				return nil, wgerr.ErrMultipartNotDone
			}
			return nil, io.EOF

		default:
			part, err := it.buf.dispatch(hdr, msgStart, msgEnd)
			if err != nil {
				it.buf.cursor = it.buf.size
				return nil, err
			}
			it.buf.cursor = nextStart
			it.buf.viewOutstanding = true
			it.single = !multi
			return part, nil
		}
	}
}

// dispatch builds a MsgPart for a message whose type is neither
// NLMSG_ERROR nor NLMSG_DONE: either a configured generic family id, or
// (for route buffers) RTM_NEWLINK/RTM_DELLINK.
func (b *Buffer) dispatch(hdr nlwire.NlMsghdr, msgStart, msgEnd int) (*MsgPart, error) {
	part := &MsgPart{buf: b, gen: b.gen, Header: hdr}

	switch {
	case b.routeFamily && (hdr.Type == uint16(nlwire.RtmNewLink) || hdr.Type == uint16(nlwire.RtmDelLink)):
		subStart := msgStart + nlwire.SizeofNlMsghdr
		if subStart+nlwire.SizeofIfInfomsg > msgEnd {
			return nil, wgerr.ErrTruncated
		}
		link := readIfInfomsg(b.data[subStart:])
		part.Link = &link
		part.attrStart = subStart + nlwire.SizeofIfInfomsg
		part.attrEnd = msgEnd

	case !b.routeFamily && hdr.Type == b.genFamilyID:
		subStart := msgStart + nlwire.SizeofNlMsghdr
		if subStart+int(nlwire.SizeofGenlmsghdr) > msgEnd {
			return nil, wgerr.ErrTruncated
		}
		gh := readGenlMsghdr(b.data[subStart:])
		part.Generic = &gh
		part.attrStart = subStart + int(nlwire.SizeofGenlmsghdr)
		part.attrEnd = msgEnd

	default:
		return nil, wgerr.Otherf("nlcodec: unexpected netlink message type %d", hdr.Type)
	}

	return part, nil
}

func readNlMsghdr(b []byte) nlwire.NlMsghdr {
	return nlwire.NlMsghdr{
		Len:   nlwire.HostEndian.Uint32(b[0:4]),
		Type:  nlwire.HostEndian.Uint16(b[4:6]),
		Flags: nlwire.HostEndian.Uint16(b[6:8]),
		Seq:   nlwire.HostEndian.Uint32(b[8:12]),
		Pid:   nlwire.HostEndian.Uint32(b[12:16]),
	}
}

func readGenlMsghdr(b []byte) nlwire.GenlMsghdr {
	return nlwire.GenlMsghdr{Cmd: b[0], Version: b[1]}
}

func readIfInfomsg(b []byte) nlwire.IfInfomsg {
	return nlwire.IfInfomsg{
		Family: b[0],
		Type:   nlwire.HostEndian.Uint16(b[2:4]),
		Index:  int32(nlwire.HostEndian.Uint32(b[4:8])),
		Flags:  nlwire.HostEndian.Uint32(b[8:12]),
		Change: nlwire.HostEndian.Uint32(b[12:16]),
	}
}

// MsgPart is a borrowed tuple (header, sub-header variant, attribute
// bounds) pointing into its Buffer. It is only valid until the owning
// MsgIter's next call to Next.
type MsgPart struct {
	Header  nlwire.NlMsghdr
	Generic *nlwire.GenlMsghdr
	Link    *nlwire.IfInfomsg

	buf                 *Buffer
	gen                 int
	attrStart, attrEnd  int
}

// Attributes returns an attribute iterator bounded by this part's attribute
// region.
func (m *MsgPart) Attributes() *AttrIter {
	return &AttrIter{buf: m.buf, gen: m.gen, pos: m.attrStart, end: m.attrEnd}
}
