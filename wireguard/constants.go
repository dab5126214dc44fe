// Copyright 2017 Microsoft. All rights reserved.
// MIT License

// Package wireguard is the WireGuard device/peer domain model and the
// Generic-Netlink "wireguard" family commands that configure it, layered
// on top of nlsession and nlcodec's session and wire-codec primitives.
package wireguard

// FamilyName is the Generic-Netlink family the kernel module registers.
const FamilyName = "wireguard"

// KeyLen is the length in bytes of a Curve25519 key.
const KeyLen = 32

// Device commands (enum wg_cmd in the kernel uapi header).
const (
	CmdGetDevice = 0
	CmdSetDevice = 1
)

// Device attributes (enum wgdevice_attribute).
const (
	DeviceAUnspec = iota
	DeviceAIfindex
	DeviceAIfname
	DeviceAPrivateKey
	DeviceAPublicKey
	DeviceAFlags
	DeviceAListenPort
	DeviceAFwmark
	DeviceAPeers
	DeviceAMonitor
)

// DeviceFReplacePeers tells SET_DEVICE to drop every peer not present in
// this request instead of merging.
const DeviceFReplacePeers = 1 << 0

// Monitor flags, the u32 payload of DeviceAMonitor: which device-change
// notifications a SET_DEVICE call arms delivery of on MulticastGroupPeers.
const (
	MonitorEndpoint = 1 << 0
	MonitorPeers    = 1 << 1
)

// MulticastGroupPeers is the Generic-Netlink multicast group name the
// "wireguard" family advertises for device-change notifications.
const MulticastGroupPeers = "peers"

// Notification command ids delivered on MulticastGroupPeers once
// DeviceAMonitor has been armed.
const (
	CmdEndpointChanged    = 2
	CmdPeerRemoved        = 3
	CmdPeerAddedOrUpdated = 4
)

// Peer attributes (enum wgpeer_attribute).
const (
	PeerAUnspec = iota
	PeerAPublicKey
	PeerAPresharedKey
	PeerAFlags
	PeerAEndpoint
	PeerAPersistentKeepaliveInterval
	PeerALastHandshakeTime
	PeerARxBytes
	PeerATxBytes
	PeerAAllowedips
	PeerAProtocolVersion
)

// Peer flags (enum wgpeer_flag).
const (
	PeerFRemoveMe            = 1 << 0
	PeerFReplaceAllowedips   = 1 << 1
	PeerFUpdateOnly          = 1 << 2
)

// Allowed-IP attributes (enum wgallowedip_attribute).
const (
	AllowedipAUnspec = iota
	AllowedipAFamily
	AllowedipAIpaddr
	AllowedipACidrMask
)
