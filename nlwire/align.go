// Copyright 2017 Microsoft. All rights reserved.
// MIT License

// Package nlwire holds the fixed-layout structs and alignment arithmetic
// shared by every Netlink message on the wire: the main header, the two
// sub-header shapes WireGuard and link discovery use, and the attribute
// header. Nothing here parses or serializes a full message; nlcodec and
// nlsession build on top of it.
package nlwire

import "golang.org/x/sys/unix"

// Align rounds n up to the next 4-byte boundary, the padding rule used by
// every Netlink and Generic-Netlink attribute on the wire.
func Align(n int) int {
	return (n + unix.NLA_ALIGNTO - 1) &^ (unix.NLA_ALIGNTO - 1)
}

// AlignedSizeOf is Align applied to a raw byte count, kept as a separate name
// so call sites read as "the aligned size of this struct" rather than a bare
// arithmetic op.
func AlignedSizeOf(n int) int {
	return Align(n)
}
