// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package wireguard

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net"
	"time"
)

// Key is a Curve25519 public, private, or preshared key.
type Key [KeyLen]byte

// String renders a Key the way `wg` itself does: base64.
func (k Key) String() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

// ParseKeyBase64 decodes a standard-base64-encoded 32-byte key.
func ParseKeyBase64(s string) (Key, error) {
	var k Key
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("wireguard: invalid base64 key: %w", err)
	}
	if len(b) != KeyLen {
		return k, fmt.Errorf("wireguard: key must be %d bytes, got %d", KeyLen, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// ParseKeyHex decodes a hex-encoded 32-byte key, the format the kernel's
// WGDEVICE_A_PRIVATE_KEY/PUBLIC_KEY attributes carry raw (not this format;
// this is a convenience for keys read from a wg-quick style config file).
func ParseKeyHex(s string) (Key, error) {
	var k Key
	b, err := hex.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("wireguard: invalid hex key: %w", err)
	}
	if len(b) != KeyLen {
		return k, fmt.Errorf("wireguard: key must be %d bytes, got %d", KeyLen, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// Endpoint is a peer's last-known or configured UDP endpoint.
type Endpoint struct {
	IP   net.IP
	Port uint16
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.IP, e.Port)
}

// AllowedIP is one entry of a peer's allowed-ips list: an address and the
// number of leading bits of it the peer is authorized for.
type AllowedIP struct {
	IP        net.IP
	CidrMask  uint8
}

func (a AllowedIP) String() string {
	return fmt.Sprintf("%s/%d", a.IP, a.CidrMask)
}

// Peer is one entry of a device's peer list, and also the shape of a
// single update sent to SetPeers/RemovePeer. Fields left nil/zero on an
// update are left unchanged by the kernel; AllowedIPs is merged into the
// peer's existing list unless ReplaceAllowedIPs is set (the kernel's
// allowed-ips update is additive-only otherwise).
type Peer struct {
	PublicKey                   Key
	PresharedKey                *Key
	Endpoint                    *Endpoint
	PersistentKeepaliveInterval *time.Duration
	AllowedIPs                  []AllowedIP

	// Read-only fields populated by GetDevice, ignored by SetPeers.
	LastHandshakeTime time.Time
	RxBytes           uint64
	TxBytes           uint64
	ProtocolVersion   uint32

	// Remove, ReplaceAllowedIPs and UpdateOnly only affect a SetPeers call.
	Remove            bool
	ReplaceAllowedIPs bool
	UpdateOnly        bool
}

// Device is a wireguard interface's full configuration and peer list.
type Device struct {
	Name         string
	Ifindex      int32
	PrivateKey   *Key
	PublicKey    *Key
	ListenPort   uint16
	Fwmark       uint32
	ReplacePeers bool
	Peers        []Peer
}

// Notification is one device-change event delivered on the subscription
// buffer returned by WireguardDev.Subscribe: an endpoint change, or a peer
// added/modified/removed.
type Notification struct {
	Cmd     int
	Ifindex int32
	Peer    Peer
}
