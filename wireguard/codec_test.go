// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package wireguard

import (
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/Azure/azure-container-networking/nlcodec"
	"github.com/Azure/azure-container-networking/nlwire"
)

func mustKey(b byte) Key {
	var k Key
	for i := range k {
		k[i] = b
	}
	return k
}

func TestKeyBase64RoundTrip(t *testing.T) {
	k := mustKey(0x42)
	parsed, err := ParseKeyBase64(k.String())
	require.NoError(t, err)
	require.Equal(t, k, parsed)
}

func TestParseKeyHexRejectsWrongLength(t *testing.T) {
	_, err := ParseKeyHex("abcd")
	require.Error(t, err)
}

func TestEndpointEncodeDecodeRoundTripIPv4(t *testing.T) {
	want := Endpoint{IP: net.ParseIP("10.1.2.3").To4(), Port: 51820}
	wire := encodeEndpoint(want)
	got, err := decodeEndpoint(wire)
	require.NoError(t, err)
	require.True(t, want.IP.Equal(got.IP))
	require.Equal(t, want.Port, got.Port)
}

func TestEndpointEncodeDecodeRoundTripIPv6(t *testing.T) {
	want := Endpoint{IP: net.ParseIP("fe80::1"), Port: 1234}
	wire := encodeEndpoint(want)
	got, err := decodeEndpoint(wire)
	require.NoError(t, err)
	require.True(t, want.IP.Equal(got.IP))
	require.Equal(t, want.Port, got.Port)
}

func TestEndpointPortIsNetworkByteOrderRegardlessOfHost(t *testing.T) {
	wire := encodeEndpoint(Endpoint{IP: net.ParseIP("127.0.0.1"), Port: 0x0102})
	require.Equal(t, byte(0x01), wire[2])
	require.Equal(t, byte(0x02), wire[3])
}

// buildAndParseDevicePeers serializes peers through serializeDevicePeers
// into a synthetic Generic-Netlink reply message and parses it back via
// parseDevice, exercising the nested Peers -> Peer -> AllowedIPs encode and
// decode chain end to end.
func buildAndParseDevicePeers(t *testing.T, peers []Peer) *Device {
	t.Helper()

	scratch := make([]byte, nlwire.MaxMessageSize)
	b := nlcodec.NewBuilder(scratch, 27, 1).Generic(uint8(CmdGetDevice))
	b = serializeDevicePeers(b, peers)
	nlwire.HostEndian.PutUint32(scratch[0:4], uint32(b.Len()))
	wire := append([]byte(nil), scratch[:b.Len()]...)

	// A connected AF_UNIX datagram socketpair stands in for the netlink
	// socket: Buffer.refill only needs something recvfrom-able, and this
	// lets the test feed it an exact byte payload without reaching into
	// nlcodec's unexported fields.
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_DGRAM, 0)
	require.NoError(t, err)
	t.Cleanup(func() { unix.Close(fds[0]); unix.Close(fds[1]) })

	_, err = unix.Write(fds[0], wire)
	require.NoError(t, err)

	buf := nlcodec.NewBuffer(fds[1], nlwire.MinBufferSize, 27, false)

	part, err := buf.RecvMsgs().Next()
	require.NoError(t, err)

	dev := &Device{}
	require.NoError(t, parseDevice(part, dev))
	return dev
}

func TestSerializeAndParsePeerRoundTrip(t *testing.T) {
	keepalive := 25 * time.Second
	peers := []Peer{
		{
			PublicKey:                   mustKey(0x11),
			PresharedKey:                keyPtr(mustKey(0x22)),
			Endpoint:                    &Endpoint{IP: net.ParseIP("192.168.1.1").To4(), Port: 51820},
			PersistentKeepaliveInterval: &keepalive,
			AllowedIPs: []AllowedIP{
				{IP: net.ParseIP("10.0.0.0").To4(), CidrMask: 8},
				{IP: net.ParseIP("fe80::").To16(), CidrMask: 64},
			},
		},
	}

	dev := buildAndParseDevicePeers(t, peers)
	require.Len(t, dev.Peers, 1)

	got := dev.Peers[0]
	require.Equal(t, peers[0].PublicKey, got.PublicKey)
	require.Equal(t, *peers[0].PresharedKey, *got.PresharedKey)
	require.True(t, peers[0].Endpoint.IP.Equal(got.Endpoint.IP))
	require.Equal(t, peers[0].Endpoint.Port, got.Endpoint.Port)
	require.Equal(t, *peers[0].PersistentKeepaliveInterval, *got.PersistentKeepaliveInterval)
	require.Len(t, got.AllowedIPs, 2)
	require.True(t, peers[0].AllowedIPs[0].IP.Equal(got.AllowedIPs[0].IP))
	require.Equal(t, peers[0].AllowedIPs[0].CidrMask, got.AllowedIPs[0].CidrMask)
	require.True(t, peers[0].AllowedIPs[1].IP.Equal(got.AllowedIPs[1].IP))
	require.Equal(t, peers[0].AllowedIPs[1].CidrMask, got.AllowedIPs[1].CidrMask)
}

func TestSerializePeerRemoveFlagRoundTrips(t *testing.T) {
	peers := []Peer{{PublicKey: mustKey(0x33), Remove: true}}
	dev := buildAndParseDevicePeers(t, peers)
	require.Len(t, dev.Peers, 1)
	// Remove is a request-only flag; the kernel never echoes it back in a
	// reply, so there's nothing to assert on dev.Peers[0] beyond the fact
	// that the message parsed without error and carried the public key.
	require.Equal(t, peers[0].PublicKey, dev.Peers[0].PublicKey)
}

func keyPtr(k Key) *Key { return &k }

// TestSerializeAndParseAllowedIPListStructurallyEqual diffs the parsed
// AllowedIP list against the input with go-cmp instead of field-by-field
// assertions, the way a struct round-trip property is usually checked.
func TestSerializeAndParseAllowedIPListStructurallyEqual(t *testing.T) {
	want := []AllowedIP{
		{IP: net.ParseIP("172.16.0.0").To4(), CidrMask: 12},
		{IP: net.ParseIP("2001:db8::").To16(), CidrMask: 32},
	}
	peers := []Peer{{PublicKey: mustKey(0x55), AllowedIPs: want}}

	dev := buildAndParseDevicePeers(t, peers)
	require.Len(t, dev.Peers, 1)

	diff := cmp.Diff(want, dev.Peers[0].AllowedIPs, cmp.Comparer(func(a, b net.IP) bool { return a.Equal(b) }))
	require.Empty(t, diff)
}
