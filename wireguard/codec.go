// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package wireguard

import (
	"encoding/binary"
	"io"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Azure/azure-container-networking/nlcodec"
	"github.com/Azure/azure-container-networking/nlwire"
	"github.com/Azure/azure-container-networking/wgerr"
)

// parseDevice merges one WG_CMD_GET_DEVICE reply message's attributes into
// dev. A device whose peer list doesn't fit in one message is split by the
// kernel across several NLM_F_MULTI messages; callers fold each part's
// peers in by calling this once per part, same handling whether or not the
// request itself set the dump flag.
func parseDevice(part *nlcodec.MsgPart, dev *Device) error {
	it := part.Attributes()
	for {
		av, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch av.Type() {
		case uint16(DeviceAIfindex):
			v, err := nlcodec.GetUint[uint32](av)
			if err != nil {
				return err
			}
			dev.Ifindex = int32(v)

		case uint16(DeviceAIfname):
			s, err := av.GetString()
			if err != nil {
				return err
			}
			dev.Name = s

		case uint16(DeviceAPrivateKey):
			k, err := getKey(av)
			if err != nil {
				return err
			}
			dev.PrivateKey = &k

		case uint16(DeviceAPublicKey):
			k, err := getKey(av)
			if err != nil {
				return err
			}
			dev.PublicKey = &k

		case uint16(DeviceAListenPort):
			v, err := nlcodec.GetUint[uint16](av)
			if err != nil {
				return err
			}
			dev.ListenPort = v

		case uint16(DeviceAFwmark):
			v, err := nlcodec.GetUint[uint32](av)
			if err != nil {
				return err
			}
			dev.Fwmark = v

		case uint16(DeviceAPeers):
			peers, err := parsePeers(av)
			if err != nil {
				return err
			}
			dev.Peers = append(dev.Peers, peers...)
		}
	}
}

// ParseNotification decodes one device-monitor message delivered on a
// Subscribe buffer: cmd from the generic sub-header, IFINDEX and a single
// peer sub-tree carried the same way a GET_DEVICE reply carries them, so
// this reuses parseDevice/parsePeers rather than a parallel attribute
// layout.
func ParseNotification(part *nlcodec.MsgPart) (Notification, error) {
	if part.Generic == nil {
		return Notification{}, wgerr.Invalidf("wireguard: notification message missing generic sub-header")
	}

	var dev Device
	if err := parseDevice(part, &dev); err != nil {
		return Notification{}, err
	}

	n := Notification{Cmd: int(part.Generic.Cmd), Ifindex: dev.Ifindex}
	if len(dev.Peers) > 0 {
		n.Peer = dev.Peers[0]
	}
	return n, nil
}

func getKey(av *nlcodec.AttrView) (Key, error) {
	var k Key
	b, err := av.GetBytes()
	if err != nil {
		return k, err
	}
	if len(b) != KeyLen {
		return k, wgerr.Invalidf("key attribute has length %d, want %d", len(b), KeyLen)
	}
	copy(k[:], b)
	return k, nil
}

func parsePeers(peersAttr *nlcodec.AttrView) ([]Peer, error) {
	var peers []Peer
	it := peersAttr.Attributes()
	for {
		peerView, err := it.Next()
		if err == io.EOF {
			return peers, nil
		}
		if err != nil {
			return nil, err
		}
		p, ok, err := parsePeer(peerView)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		peers = append(peers, p)
	}
}

// parsePeer decodes one peer sub-tree. Its second return is false when no
// PUBLIC_KEY attribute was seen — a keyless sub-tree carries no peer
// identity and the kernel never sends one in practice, but the Netlink
// forward-compatibility contract means an unrecognized variant must be
// skipped rather than turned into a zero-key Peer.
func parsePeer(peerView *nlcodec.AttrView) (Peer, bool, error) {
	var p Peer
	var haveKey bool
	it := peerView.Attributes()
	for {
		av, err := it.Next()
		if err == io.EOF {
			return p, haveKey, nil
		}
		if err != nil {
			return p, haveKey, err
		}

		switch av.Type() {
		case uint16(PeerAPublicKey):
			k, err := getKey(av)
			if err != nil {
				return p, haveKey, err
			}
			p.PublicKey = k
			haveKey = true

		case uint16(PeerAPresharedKey):
			k, err := getKey(av)
			if err != nil {
				return p, haveKey, err
			}
			p.PresharedKey = &k

		case uint16(PeerAEndpoint):
			b, err := av.GetBytes()
			if err != nil {
				return p, haveKey, err
			}
			ep, err := decodeEndpoint(b)
			if err != nil {
				return p, haveKey, err
			}
			p.Endpoint = &ep

		case uint16(PeerAPersistentKeepaliveInterval):
			v, err := nlcodec.GetUint[uint16](av)
			if err != nil {
				return p, haveKey, err
			}
			d := time.Duration(v) * time.Second
			p.PersistentKeepaliveInterval = &d

		case uint16(PeerALastHandshakeTime):
			b, err := av.GetBytes()
			if err != nil {
				return p, haveKey, err
			}
			if len(b) >= 16 {
				sec := int64(nlwire.HostEndian.Uint64(b[0:8]))
				nsec := int64(nlwire.HostEndian.Uint64(b[8:16]))
				if sec != 0 || nsec != 0 {
					p.LastHandshakeTime = time.Unix(sec, nsec)
				}
			}

		case uint16(PeerARxBytes):
			v, err := nlcodec.GetUint[uint64](av)
			if err != nil {
				return p, haveKey, err
			}
			p.RxBytes = v

		case uint16(PeerATxBytes):
			v, err := nlcodec.GetUint[uint64](av)
			if err != nil {
				return p, haveKey, err
			}
			p.TxBytes = v

		case uint16(PeerAAllowedips):
			ips, err := parseAllowedIPs(av)
			if err != nil {
				return p, haveKey, err
			}
			p.AllowedIPs = ips

		case uint16(PeerAProtocolVersion):
			v, err := nlcodec.GetUint[uint32](av)
			if err != nil {
				return p, haveKey, err
			}
			p.ProtocolVersion = v
		}
	}
}

func parseAllowedIPs(attr *nlcodec.AttrView) ([]AllowedIP, error) {
	var ips []AllowedIP
	it := attr.Attributes()
	for {
		entry, err := it.Next()
		if err == io.EOF {
			return ips, nil
		}
		if err != nil {
			return nil, err
		}
		a, err := parseAllowedIP(entry)
		if err != nil {
			return nil, err
		}
		ips = append(ips, a)
	}
}

func parseAllowedIP(entry *nlcodec.AttrView) (AllowedIP, error) {
	var a AllowedIP
	it := entry.Attributes()
	for {
		av, err := it.Next()
		if err == io.EOF {
			return a, nil
		}
		if err != nil {
			return a, err
		}

		switch av.Type() {
		case uint16(AllowedipAIpaddr):
			b, err := av.GetBytes()
			if err != nil {
				return a, err
			}
			a.IP = net.IP(append([]byte(nil), b...))

		case uint16(AllowedipACidrMask):
			v, err := nlcodec.GetUint[uint8](av)
			if err != nil {
				return a, err
			}
			a.CidrMask = v
		}
	}
}

// decodeEndpoint decodes a raw sockaddr_in/sockaddr_in6 payload the kernel
// sends for WGPEER_A_ENDPOINT: address family in host order, port in
// network (big-endian) order regardless of host, then the address.
func decodeEndpoint(b []byte) (Endpoint, error) {
	if len(b) < 4 {
		return Endpoint{}, wgerr.Invalidf("endpoint attribute too short")
	}

	family := nlwire.HostEndian.Uint16(b[0:2])
	port := binary.BigEndian.Uint16(b[2:4])

	switch family {
	case unix.AF_INET:
		if len(b) < 8 {
			return Endpoint{}, wgerr.Invalidf("ipv4 endpoint attribute too short")
		}
		return Endpoint{IP: net.IP(append([]byte(nil), b[4:8]...)), Port: port}, nil

	case unix.AF_INET6:
		if len(b) < 24 {
			return Endpoint{}, wgerr.Invalidf("ipv6 endpoint attribute too short")
		}
		return Endpoint{IP: net.IP(append([]byte(nil), b[8:24]...)), Port: port}, nil

	default:
		return Endpoint{}, wgerr.Invalidf("unknown endpoint address family %d", family)
	}
}

// encodeEndpoint is decodeEndpoint's inverse, used when serializing a peer
// update that sets an endpoint.
func encodeEndpoint(e Endpoint) []byte {
	if v4 := e.IP.To4(); v4 != nil {
		buf := make([]byte, 16)
		nlwire.HostEndian.PutUint16(buf[0:2], unix.AF_INET)
		binary.BigEndian.PutUint16(buf[2:4], e.Port)
		copy(buf[4:8], v4)
		return buf
	}

	buf := make([]byte, 28)
	nlwire.HostEndian.PutUint16(buf[0:2], unix.AF_INET6)
	binary.BigEndian.PutUint16(buf[2:4], e.Port)
	copy(buf[8:24], e.IP.To16())
	return buf
}

// serializeDevicePeers appends WGDEVICE_A_PEERS if peers is non-empty.
func serializeDevicePeers(b nlcodec.Builder, peers []Peer) nlcodec.Builder {
	if len(peers) == 0 {
		return b
	}
	return b.Nested(uint16(DeviceAPeers), func(list nlcodec.NestBuilder) nlcodec.NestBuilder {
		for i, p := range peers {
			list = serializePeer(list, i, p)
		}
		return list
	})
}

// serializePeer appends one indexed peer nest to list (the WGDEVICE_A_PEERS
// nest, or a testing caller's own top-level list): PUBLIC_KEY, then flags
// and preshared key if set, then the ALLOWEDIPS nest, then ENDPOINT, then
// PERSISTENT_KEEPALIVE_INTERVAL — the kernel is order-agnostic after
// PUBLIC_KEY, but this is the order a set-peer request is conventionally
// laid out in.
func serializePeer(list nlcodec.NestBuilder, index int, p Peer) nlcodec.NestBuilder {
	return list.Nested(uint16(index), func(peerNest nlcodec.NestBuilder) nlcodec.NestBuilder {
		peerNest = peerNest.AttrBytes(uint16(PeerAPublicKey), p.PublicKey[:])

		var flags uint32
		if p.Remove {
			flags |= PeerFRemoveMe
		}
		if p.ReplaceAllowedIPs {
			flags |= PeerFReplaceAllowedips
		}
		if p.UpdateOnly {
			flags |= PeerFUpdateOnly
		}
		if flags != 0 {
			peerNest = peerNest.Attr(uint16(PeerAFlags), flags)
		}

		if p.PresharedKey != nil {
			peerNest = peerNest.AttrBytes(uint16(PeerAPresharedKey), p.PresharedKey[:])
		}

		if len(p.AllowedIPs) > 0 {
			peerNest = peerNest.Nested(uint16(PeerAAllowedips), func(ips nlcodec.NestBuilder) nlcodec.NestBuilder {
				for i, a := range p.AllowedIPs {
					ips = serializeAllowedIP(ips, i, a)
				}
				return ips
			})
		}

		if p.Endpoint != nil {
			peerNest = peerNest.AttrBytes(uint16(PeerAEndpoint), encodeEndpoint(*p.Endpoint))
		}
		if p.PersistentKeepaliveInterval != nil {
			peerNest = peerNest.Attr(uint16(PeerAPersistentKeepaliveInterval), uint16(p.PersistentKeepaliveInterval.Seconds()))
		}

		return peerNest
	})
}

func serializeAllowedIP(list nlcodec.NestBuilder, index int, a AllowedIP) nlcodec.NestBuilder {
	return list.Nested(uint16(index), func(n nlcodec.NestBuilder) nlcodec.NestBuilder {
		if v4 := a.IP.To4(); v4 != nil {
			n = n.Attr(uint16(AllowedipAFamily), uint16(unix.AF_INET))
			n = n.AttrBytes(uint16(AllowedipAIpaddr), v4)
		} else {
			n = n.Attr(uint16(AllowedipAFamily), uint16(unix.AF_INET6))
			n = n.AttrBytes(uint16(AllowedipAIpaddr), a.IP.To16())
		}
		return n.Attr(uint16(AllowedipACidrMask), a.CidrMask)
	})
}
