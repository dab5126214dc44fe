// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package nlsession

import "golang.org/x/sys/unix"

// sysCalls is the thin syscall seam session talks to, so a unit test can
// substitute a mock instead of opening a real netlink socket. realSysCalls
// is the only production implementation.
type sysCalls interface {
	Socket(domain, typ, proto int) (int, error)
	Bind(fd int, sa unix.Sockaddr) error
	Sendto(fd int, p []byte, flags int, to unix.Sockaddr) error
	SetsockoptInt(fd, level, opt, value int) error
	Close(fd int) error
}

type realSysCalls struct{}

func (realSysCalls) Socket(domain, typ, proto int) (int, error) { return unix.Socket(domain, typ, proto) }
func (realSysCalls) Bind(fd int, sa unix.Sockaddr) error         { return unix.Bind(fd, sa) }
func (realSysCalls) Sendto(fd int, p []byte, flags int, to unix.Sockaddr) error {
	return unix.Sendto(fd, p, flags, to)
}
func (realSysCalls) SetsockoptInt(fd, level, opt, value int) error {
	return unix.SetsockoptInt(fd, level, opt, value)
}
func (realSysCalls) Close(fd int) error { return unix.Close(fd) }
