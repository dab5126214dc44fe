// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package wireguard

import (
	"github.com/Azure/azure-container-networking/log"
	"github.com/Azure/azure-container-networking/nlcodec"
	"github.com/Azure/azure-container-networking/nlsession"
	"github.com/Azure/azure-container-networking/wgerr"
)

// WireguardDev is a handle to one wireguard interface's Generic-Netlink
// "wireguard" family conversation, bound to the interface's index.
type WireguardDev struct {
	gen     *nlsession.GenericSession
	ifname  string
	ifindex int32
}

// Open resolves the wireguard interface named by filter and binds to it.
// With an empty filter, Open succeeds iff exactly one wireguard interface
// exists on the host; with a non-empty filter, Open succeeds iff an
// interface of that name is among them. Either way the interface is
// resolved up front via a route-family link dump, rather than deferred to
// the first GetDevice/SetPeers call, so a missing or ambiguous interface
// is reported as NoInterfaceFound/Other instead of a kernel ENODEV.
func Open(filter string) (*WireguardDev, error) {
	links, err := ListInterfaces()
	if err != nil {
		return nil, err
	}

	var match *nlsession.LinkInfo
	if filter == "" {
		switch len(links) {
		case 0:
			return nil, wgerr.ErrNoInterfaceFound
		case 1:
			match = &links[0]
		default:
			return nil, wgerr.Otherf("multiple wireguard interfaces found, a name filter is required")
		}
	} else {
		for i := range links {
			if links[i].Name == filter {
				match = &links[i]
				break
			}
		}
		if match == nil {
			return nil, wgerr.ErrNoInterfaceFound
		}
	}

	gen, err := nlsession.DialGeneric(FamilyName)
	if err != nil {
		return nil, err
	}
	return &WireguardDev{gen: gen, ifname: match.Name, ifindex: match.Index}, nil
}

// Close releases the underlying socket.
func (w *WireguardDev) Close() error { return w.gen.Close() }

// GetDevice fetches the interface's full configuration and peer list.
func (w *WireguardDev) GetDevice() (*Device, error) {
	dev := &Device{Name: w.ifname}

	err := w.gen.Request(CmdGetDevice, true, func(b nlcodec.Builder) nlcodec.Builder {
		return b.Attr(uint16(DeviceAIfindex), uint32(w.ifindex))
	}, func(part *nlcodec.MsgPart) error {
		return parseDevice(part, dev)
	})
	if err != nil {
		return nil, err
	}

	log.Debugf("[wireguard] %s: %d peers\n", w.ifname, len(dev.Peers))
	return dev, nil
}

// GetPeers is a convenience wrapper around GetDevice for callers that only
// need the peer list.
func (w *WireguardDev) GetPeers() ([]Peer, error) {
	dev, err := w.GetDevice()
	if err != nil {
		return nil, err
	}
	return dev.Peers, nil
}

// SetPeers pushes peer updates to the interface. Peers not named here are
// left untouched unless replacePeers is set, in which case the kernel
// drops every peer not present in this call. Each peer's AllowedIPs are
// merged into its existing list unless that peer's ReplaceAllowedIPs is
// set.
func (w *WireguardDev) SetPeers(peers []Peer, replacePeers bool) error {
	if len(peers) == 0 {
		return wgerr.Otherf("wireguard: SetPeers called with no peers")
	}

	return w.gen.Request(CmdSetDevice, false, func(b nlcodec.Builder) nlcodec.Builder {
		b = b.Ack()
		b = b.Attr(uint16(DeviceAIfindex), uint32(w.ifindex))
		if replacePeers {
			b = b.Attr(uint16(DeviceAFlags), uint32(DeviceFReplacePeers))
		}
		return serializeDevicePeers(b, peers)
	}, func(*nlcodec.MsgPart) error { return nil })
}

// RemovePeer removes a single peer by public key — a convenience
// SetPeers([]Peer{{PublicKey: pub, Remove: true}}, false) skips building
// by hand for the most common single-peer mutation.
func (w *WireguardDev) RemovePeer(pub Key) error {
	return w.SetPeers([]Peer{{PublicKey: pub, Remove: true}}, false)
}

// Subscribe arms device-change notifications selected by flags (MonitorEndpoint,
// MonitorPeers, or both) by setting DeviceAMonitor via a SET_DEVICE call on
// the primary socket, then returns an owned receive buffer bound to a
// fresh socket on the MulticastGroupPeers group — control-plane traffic
// (this SET_DEVICE call) and the resulting data-plane notifications never
// share a socket, so subscribing can't desynchronize a concurrent
// GetDevice/SetPeers sequence number. The caller is responsible for
// closing the returned buffer.
func (w *WireguardDev) Subscribe(flags uint32) (*nlcodec.Buffer, error) {
	err := w.gen.Request(CmdSetDevice, false, func(b nlcodec.Builder) nlcodec.Builder {
		b = b.Ack()
		b = b.Attr(uint16(DeviceAIfindex), uint32(w.ifindex))
		return b.Attr(uint16(DeviceAMonitor), flags)
	}, func(*nlcodec.MsgPart) error { return nil })
	if err != nil {
		return nil, err
	}

	return w.gen.Subscribe(MulticastGroupPeers)
}

// ListInterfaces returns every wireguard-kind interface on the host, using
// a route-family link dump rather than the wireguard family itself (the
// wireguard Generic-Netlink family has no operation enumerating interface
// names; route netlink is the only place that information lives).
func ListInterfaces() ([]nlsession.LinkInfo, error) {
	r, err := nlsession.DialRoute()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return r.GetWireguardInterfaces()
}
