// Copyright 2017 Microsoft. All rights reserved.
// MIT License

// Package nlsession binds a nlcodec.Builder/Buffer pair to a live Netlink
// socket and drives the request/response protocol: send a request, pull
// response parts until the sequence either completes or errors. One socket
// type (bind, atomic seq, mutex around a send-then-receive round trip)
// serves both the Generic-Netlink and route-netlink dialects.
package nlsession

import (
	"io"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/Azure/azure-container-networking/log"
	"github.com/Azure/azure-container-networking/nlcodec"
	"github.com/Azure/azure-container-networking/nlwire"
	"github.com/Azure/azure-container-networking/wgerr"
)

// session owns one Netlink socket of a given protocol family and
// serializes requests against it with an embedded sync.Mutex.
type session struct {
	fd    int
	pid   uint32
	seq   uint32
	proto int
	sys   sysCalls

	sync.Mutex
}

func newSession(proto int) (*session, error) {
	return newSessionWith(realSysCalls{}, proto)
}

func newSessionWith(sys sysCalls, proto int) (*session, error) {
	fd, err := sys.Socket(unix.AF_NETLINK, unix.SOCK_RAW, proto)
	if err != nil {
		var wrapped *wgerr.Error
		if errno, ok := err.(syscall.Errno); ok {
			wrapped = wgerr.FromErrno(errno)
		} else {
			wrapped = wgerr.FromIOErr(err)
		}
		return nil, errors.Wrap(wrapped, "nlsession: opening socket")
	}

	sa := &unix.SockaddrNetlink{Family: unix.AF_NETLINK}
	if err := sys.Bind(fd, sa); err != nil {
		sys.Close(fd)
		var wrapped *wgerr.Error
		if errno, ok := err.(syscall.Errno); ok {
			wrapped = wgerr.FromErrno(errno)
		} else {
			wrapped = wgerr.FromIOErr(err)
		}
		return nil, errors.Wrap(wrapped, "nlsession: binding socket")
	}

	s := &session{fd: fd, pid: uint32(unix.Getpid()), proto: proto, sys: sys}
	log.Debugf("[nlsession] socket opened, proto=%d fd=%d\n", proto, fd)
	return s, nil
}

func (s *session) nextSeq() uint32 {
	return atomic.AddUint32(&s.seq, 1)
}

// close releases the socket.
func (s *session) close() error {
	return s.sys.Close(s.fd)
}

// joinGroup subscribes this socket to a multicast group by id via
// setsockopt(NETLINK_ADD_MEMBERSHIP), arming notification delivery for
// subsequent reads off the same buffer.
func (s *session) joinGroup(groupID uint32) error {
	if groupID == 0 {
		return wgerr.ErrInvalidGroupId
	}
	err := s.sys.SetsockoptInt(s.fd, unix.SOL_NETLINK, unix.NETLINK_ADD_MEMBERSHIP, int(groupID))
	if err != nil {
		if errno, ok := err.(syscall.Errno); ok {
			return wgerr.FromErrno(errno)
		}
		return wgerr.FromIOErr(err)
	}
	return nil
}

// sendAndCollect transmits one request of the given message type, built by
// build, and drains every response part into buf, invoking onPart for each
// one. It stops cleanly on io.EOF from the message iterator and surfaces
// any other error from either the send or the receive side. onPart is a
// callback rather than a collected slice since a device dump can be
// arbitrarily large.
func (s *session) sendAndCollect(msgType uint16, build func(nlcodec.Builder) nlcodec.Builder, buf *nlcodec.Buffer, onPart func(*nlcodec.MsgPart) error) error {
	s.Lock()
	defer s.Unlock()

	scratch := make([]byte, nlwire.MaxMessageSize)
	b := build(nlcodec.NewBuilder(scratch, msgType, s.nextSeq()))

	if _, err := b.Sendto(s.fd); err != nil {
		return err
	}

	it := buf.RecvMsgs()
	for {
		part, err := it.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := onPart(part); err != nil {
			return err
		}
	}
}
