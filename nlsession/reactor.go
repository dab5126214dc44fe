// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package nlsession

// Readiness lets an external event loop (an epoll wrapper, a runtime
// integration) drive a session's socket instead of this package blocking
// in recvfrom on its own goroutine. A session's Fd is stable for its
// lifetime, so Register only needs calling once after Dial.
type Readiness interface {
	// Register arms fd for read readiness notifications.
	Register(fd int) error
	// Unregister disarms fd, called before the session is closed.
	Unregister(fd int) error
}

// Fd returns the underlying socket file descriptor for a Generic-Netlink
// session, for use with Readiness.Register. Once registered, a caller
// drains available messages by calling Buffer().RecvMsgs() from its own
// event-loop callback instead of a dedicated reader goroutine.
func (g *GenericSession) Fd() int { return g.buf.Fd() }

// Fd returns the underlying socket file descriptor for a route session.
func (r *RouteSession) Fd() int { return r.buf.Fd() }
