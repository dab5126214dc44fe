// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package nlcodec

import (
	"encoding/binary"
	"io"

	"github.com/Azure/azure-container-networking/nlwire"
	"github.com/Azure/azure-container-networking/wgerr"
)

// AttrIter walks a flat run of sibling attributes bounded by [pos, end) in
// a Buffer's data array. It is produced by MsgPart.Attributes or by
// AttrView.Attributes for a nested attribute, and is bound to the
// generation the Buffer was at when its parent view was created.
type AttrIter struct {
	buf      *Buffer
	gen      int
	pos, end int
}

// Next decodes the attribute header at the current position and advances
// past its (aligned) payload. It returns io.EOF once every sibling has been
// consumed. A malformed length — one that would read past the parent's
// bound — is a programming-visible bug in the remote peer or the caller's
// bounds bookkeeping, not a recoverable condition, so Next panics rather
// than silently truncating.
func (a *AttrIter) Next() (*AttrView, error) {
	if a.buf.gen != a.gen {
		return nil, wgerr.Otherf("nlcodec: attribute iterator used after buffer refill")
	}
	if a.pos+nlwire.SizeofNlAttr > a.end {
		return nil, io.EOF
	}

	length := int(nlwire.HostEndian.Uint16(a.buf.data[a.pos : a.pos+2]))
	rawType := nlwire.HostEndian.Uint16(a.buf.data[a.pos+2 : a.pos+4])

	if length < nlwire.SizeofNlAttr || a.pos+nlwire.Align(length) > a.end {
		panic("nlcodec: malformed attribute, length exceeds parent bound")
	}

	view := &AttrView{
		buf:     a.buf,
		gen:     a.gen,
		start:   a.pos + nlwire.SizeofNlAttr,
		end:     a.pos + length,
		nested:  rawType&uint16(nlwire.AttrNested) != 0,
		rawType: rawType,
	}

	a.pos += nlwire.Align(length)
	return view, nil
}

// AttrView is a borrowed view over one attribute's payload, bound to the
// generation its iterator was created at.
type AttrView struct {
	buf        *Buffer
	gen        int
	start, end int
	nested     bool
	rawType    uint16
}

// Type returns the attribute's semantic type id, with the NESTED and
// NET_BYTEORDER bits masked off.
func (v *AttrView) Type() uint16 {
	return v.rawType &^ uint16(nlwire.AttrTypeMask)
}

// NetByteOrder reports whether the kernel tagged this attribute's payload
// as big-endian rather than the usual little-endian fixed-width encoding.
func (v *AttrView) NetByteOrder() bool {
	return v.rawType&uint16(nlwire.AttrNetByteOrder) != 0
}

// MakeNested re-tags this view as carrying nested sub-attributes even
// though the kernel did not set the NESTED bit — needed for route family's
// IFLA_INFO_KIND family, where the link-info payload is a flat attribute
// run without the bit set.
func (v *AttrView) MakeNested() {
	v.nested = true
}

func (v *AttrView) checkGen() error {
	if v.buf.gen != v.gen {
		return wgerr.Otherf("nlcodec: attribute view used after buffer refill")
	}
	return nil
}

// GetBytes returns the attribute's raw payload, still borrowed from the
// Buffer's data array; callers that need to retain it past the current
// iteration step must copy it.
func (v *AttrView) GetBytes() ([]byte, error) {
	if err := v.checkGen(); err != nil {
		return nil, err
	}
	return v.buf.data[v.start:v.end], nil
}

// GetString decodes the payload as a NUL-terminated byte string, the
// encoding Generic-Netlink uses for family and group names.
func (v *AttrView) GetString() (string, error) {
	b, err := v.GetBytes()
	if err != nil {
		return "", err
	}
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), nil
		}
	}
	return string(b), nil
}

// Attributes returns an iterator over this view's nested sub-attributes.
// It returns an iterator that immediately yields io.EOF if the view was
// never marked nested (neither by the kernel nor by MakeNested).
func (v *AttrView) Attributes() *AttrIter {
	if !v.nested {
		return &AttrIter{buf: v.buf, gen: v.gen, pos: v.end, end: v.end}
	}
	return &AttrIter{buf: v.buf, gen: v.gen, pos: v.start, end: v.end}
}

// attrUint is the set of fixed-width unsigned integer types a Netlink
// attribute payload can hold.
type attrUint interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// GetUint decodes a fixed-width unsigned integer attribute, little-endian
// unless the view's NET_BYTEORDER bit is set, in which case the kernel
// wrote it big-endian.
func GetUint[T attrUint](v *AttrView) (T, error) {
	b, err := v.GetBytes()
	if err != nil {
		return 0, err
	}

	var order binary.ByteOrder = binary.LittleEndian
	if v.NetByteOrder() {
		order = binary.BigEndian
	}

	var zero T
	switch any(zero).(type) {
	case uint8:
		if len(b) < 1 {
			return zero, wgerr.Invalidf("attribute too short for uint8")
		}
		return T(b[0]), nil
	case uint16:
		if len(b) < 2 {
			return zero, wgerr.Invalidf("attribute too short for uint16")
		}
		return T(order.Uint16(b)), nil
	case uint32:
		if len(b) < 4 {
			return zero, wgerr.Invalidf("attribute too short for uint32")
		}
		return T(order.Uint32(b)), nil
	case uint64:
		if len(b) < 8 {
			return zero, wgerr.Invalidf("attribute too short for uint64")
		}
		return T(order.Uint64(b)), nil
	default:
		return zero, wgerr.Otherf("nlcodec: unsupported GetUint type")
	}
}
