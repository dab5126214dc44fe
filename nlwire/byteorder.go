// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package nlwire

import (
	"encoding/binary"
	"unsafe"
)

// HostEndian is the byte order the running machine's CPU uses. Netlink
// message and sub-message headers are defined in host byte order; only the
// fixed-width values inside attribute payloads are written little-endian
// regardless of host. Detected at init time rather than assumed, since a
// little-endian assumption silently breaks on big-endian hosts.
var HostEndian binary.ByteOrder = detectHostEndian()

func detectHostEndian() binary.ByteOrder {
	var x uint32 = 0x01020304
	if *(*byte)(unsafe.Pointer(&x)) == 0x01 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}
