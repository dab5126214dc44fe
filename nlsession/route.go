// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package nlsession

import (
	"io"

	"golang.org/x/sys/unix"

	"github.com/Azure/azure-container-networking/nlcodec"
	"github.com/Azure/azure-container-networking/nlwire"
)

// LinkInfo is the subset of an ifinfomsg reply this package cares about:
// enough to tell a wireguard interface apart from everything else on the
// host. Shared between the dump path (GetInterfaces) and the monitor path
// (a caller iterating RTM_NEWLINK/RTM_DELLINK notifications off the buffer
// SubscribeLink returns, through ParseLinkInfo) so both use one parser
// instead of two.
type LinkInfo struct {
	Index int32
	Name  string
	Kind  string
	IsDel bool
}

// RouteSession is a bound NETLINK_ROUTE conversation used for link
// discovery and monitoring (no family resolution step — route netlink has
// no Generic-Netlink control layer).
type RouteSession struct {
	s   *session
	buf *nlcodec.Buffer
}

// DialRoute opens a NETLINK_ROUTE socket.
func DialRoute() (*RouteSession, error) {
	sess, err := newSession(unix.NETLINK_ROUTE)
	if err != nil {
		return nil, err
	}
	buf := nlcodec.NewRouteBuffer(sess.fd, nlwire.MinBufferSize, false)
	return &RouteSession{s: sess, buf: buf}, nil
}

// Buffer returns the receive buffer bound to this session's socket, which
// carries the replies to this session's own requests. Link notifications
// do not arrive here; they arrive on the separate buffer SubscribeLink
// returns.
func (r *RouteSession) Buffer() *nlcodec.Buffer { return r.buf }

// GetInterfaces dumps every link on the host.
func (r *RouteSession) GetInterfaces() ([]LinkInfo, error) {
	var links []LinkInfo
	err := r.s.sendAndCollect(uint16(nlwire.RtmGetLink), func(b nlcodec.Builder) nlcodec.Builder {
		return b.Ifinfomsg(unix.AF_UNSPEC).Dump()
	}, r.buf, func(part *nlcodec.MsgPart) error {
		li, err := parseLinkInfo(part)
		if err != nil {
			return err
		}
		links = append(links, li)
		return nil
	})
	return links, err
}

// GetWireguardInterfaces dumps every link and returns only the ones whose
// IFLA_LINKINFO/IFLA_INFO_KIND is "wireguard", filtering client-side since
// route netlink has no server-side filter by link kind.
func (r *RouteSession) GetWireguardInterfaces() ([]LinkInfo, error) {
	all, err := r.GetInterfaces()
	if err != nil {
		return nil, err
	}

	wgLinks := make([]LinkInfo, 0, len(all))
	for _, l := range all {
		if l.Kind == "wireguard" {
			wgLinks = append(wgLinks, l)
		}
	}
	return wgLinks, nil
}

// SubscribeLink opens a fresh socket bound to the RTMGRP_LINK multicast
// group and returns its own receive buffer, so that draining
// RTM_NEWLINK/RTM_DELLINK notifications never disturbs the primary
// socket's request/response sequence correlation. The caller is
// responsible for closing the returned buffer.
func (r *RouteSession) SubscribeLink() (*nlcodec.Buffer, error) {
	sub, err := newSession(unix.NETLINK_ROUTE)
	if err != nil {
		return nil, err
	}
	if err := sub.joinGroup(uint32(nlwire.RtmGrpLink)); err != nil {
		sub.close()
		return nil, err
	}
	return nlcodec.NewRouteBuffer(sub.fd, nlwire.MinBufferSize, true), nil
}

// Close releases the underlying socket.
func (r *RouteSession) Close() error { return r.s.close() }

// ParseLinkInfo decodes one RTM_NEWLINK/RTM_DELLINK message part, such as
// one read from the buffer SubscribeLink returns.
func ParseLinkInfo(part *nlcodec.MsgPart) (LinkInfo, error) {
	return parseLinkInfo(part)
}

// parseLinkInfo decodes one RTM_NEWLINK/RTM_DELLINK message's ifinfomsg and
// IFLA_IFNAME/IFLA_LINKINFO attributes.
func parseLinkInfo(part *nlcodec.MsgPart) (LinkInfo, error) {
	var li LinkInfo
	if part.Link != nil {
		li.Index = part.Link.Index
	}
	li.IsDel = part.Header.Type == uint16(nlwire.RtmDelLink)

	it := part.Attributes()
	for {
		av, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return li, err
		}

		switch av.Type() {
		case uint16(nlwire.IflaIfname):
			name, err := av.GetString()
			if err != nil {
				return li, err
			}
			li.Name = name

		case uint16(nlwire.IflaLinkinfo):
			// Some kernels omit NLA_F_NESTED on IFLA_LINKINFO itself; treat
			// it as nested unconditionally rather than trusting the bit.
			av.MakeNested()
			kind, err := parseInfoKind(av)
			if err != nil {
				return li, err
			}
			li.Kind = kind
		}
	}

	return li, nil
}

func parseInfoKind(linkinfo *nlcodec.AttrView) (string, error) {
	sub := linkinfo.Attributes()
	for {
		s, err := sub.Next()
		if err == io.EOF {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		if s.Type() == uint16(nlwire.IflaInfoKind) {
			return s.GetString()
		}
	}
}
