// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package nlwire

import "github.com/davecgh/go-spew/spew"

// DumpBuffer renders a raw receive buffer for debug logging when a message
// is truncated or otherwise fails to parse — spew.Sdump on a byte slice
// gives a readable hex/ASCII dump instead of Go's default %v byte-slice
// formatting, which is unreadable past a few dozen bytes.
func DumpBuffer(b []byte) string {
	return spew.Sdump(b)
}
