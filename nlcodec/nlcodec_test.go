// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package nlcodec

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Azure/azure-container-networking/nlwire"
	"github.com/Azure/azure-container-networking/wgerr"
)

const testFamilyID = 27

func newTestBuffer(data []byte) *Buffer {
	b := NewBuffer(-1, nlwire.MinBufferSize, testFamilyID, false)
	b.data = data
	b.size = len(data)
	b.cursor = 0
	return b
}

func buildGenericRequest(cmd uint8, build func(Builder) Builder) []byte {
	scratch := make([]byte, nlwire.MaxMessageSize)
	b := NewBuilder(scratch, testFamilyID, 1).Generic(cmd)
	b = build(b)
	nlwire.HostEndian.PutUint32(scratch[0:4], uint32(b.Len()))
	return append([]byte(nil), scratch[:b.Len()]...)
}

func TestAttrRoundTripsFixedWidthValues(t *testing.T) {
	wire := buildGenericRequest(1, func(b Builder) Builder {
		b = b.Attr(11, uint32(0xC0FFEE))
		b = b.Attr(12, uint16(4242))
		b = b.AttrBytes(13, []byte("wg0"))
		return b
	})

	buf := newTestBuffer(wire)
	part, err := buf.RecvMsgs().Next()
	require.NoError(t, err)
	require.NotNil(t, part.Generic)
	require.EqualValues(t, 1, part.Generic.Cmd)

	it := part.Attributes()

	av, err := it.Next()
	require.NoError(t, err)
	require.EqualValues(t, 11, av.Type())
	v32, err := GetUint[uint32](av)
	require.NoError(t, err)
	require.Equal(t, uint32(0xC0FFEE), v32)

	av, err = it.Next()
	require.NoError(t, err)
	require.EqualValues(t, 12, av.Type())
	v16, err := GetUint[uint16](av)
	require.NoError(t, err)
	require.Equal(t, uint16(4242), v16)

	av, err = it.Next()
	require.NoError(t, err)
	require.EqualValues(t, 13, av.Type())
	s, err := av.GetString()
	require.NoError(t, err)
	require.Equal(t, "wg0", s)

	_, err = it.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestNestedAttributesRoundTripTwoLevelsDeep(t *testing.T) {
	wire := buildGenericRequest(1, func(b Builder) Builder {
		return b.Nested(100, func(outer NestBuilder) NestBuilder {
			outer = outer.Attr(1, uint8(7))
			return outer.Nested(2, func(inner NestBuilder) NestBuilder {
				return inner.AttrBytes(3, []byte("leaf"))
			})
		})
	})

	buf := newTestBuffer(wire)
	part, err := buf.RecvMsgs().Next()
	require.NoError(t, err)

	it := part.Attributes()
	outer, err := it.Next()
	require.NoError(t, err)
	require.EqualValues(t, 100, outer.Type())

	outerIt := outer.Attributes()
	a1, err := outerIt.Next()
	require.NoError(t, err)
	require.EqualValues(t, 1, a1.Type())
	v, err := GetUint[uint8](a1)
	require.NoError(t, err)
	require.Equal(t, uint8(7), v)

	a2, err := outerIt.Next()
	require.NoError(t, err)
	require.EqualValues(t, 2, a2.Type())

	leafIt := a2.Attributes()
	leaf, err := leafIt.Next()
	require.NoError(t, err)
	require.EqualValues(t, 3, leaf.Type())
	s, err := leaf.GetString()
	require.NoError(t, err)
	require.Equal(t, "leaf", s)
}

func TestAckMessageTerminatesWithEOF(t *testing.T) {
	scratch := make([]byte, nlwire.MaxMessageSize)
	hdrLen := nlwire.SizeofNlMsghdr + 4
	nlwire.HostEndian.PutUint32(scratch[0:4], uint32(hdrLen))
	nlwire.HostEndian.PutUint16(scratch[4:6], uint16(nlwire.MsgError))
	nlwire.HostEndian.PutUint16(scratch[6:8], 0)
	nlwire.HostEndian.PutUint32(scratch[8:12], 1)
	nlwire.HostEndian.PutUint32(scratch[12:16], 0)
	nlwire.HostEndian.PutUint32(scratch[16:20], 0) // errno 0 == ack

	buf := newTestBuffer(scratch[:hdrLen])
	_, err := buf.RecvMsgs().Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestErrorMessageSurfacesErrno(t *testing.T) {
	scratch := make([]byte, nlwire.MaxMessageSize)
	hdrLen := nlwire.SizeofNlMsghdr + 4
	nlwire.HostEndian.PutUint32(scratch[0:4], uint32(hdrLen))
	nlwire.HostEndian.PutUint16(scratch[4:6], uint16(nlwire.MsgError))
	errno := int32(-19) // -ENODEV
	nlwire.HostEndian.PutUint32(scratch[16:20], uint32(errno))

	buf := newTestBuffer(scratch[:hdrLen])
	_, err := buf.RecvMsgs().Next()
	require.Error(t, err)
	var wgErr *wgerr.Error
	require.True(t, errors.As(err, &wgErr))
	require.Equal(t, wgerr.OsError, wgErr.Kind)
}

func TestDoneWithoutMultiIsMultipartNotDone(t *testing.T) {
	scratch := make([]byte, nlwire.MaxMessageSize)
	hdrLen := nlwire.SizeofNlMsghdr
	nlwire.HostEndian.PutUint32(scratch[0:4], uint32(hdrLen))
	nlwire.HostEndian.PutUint16(scratch[4:6], uint16(nlwire.MsgDone))

	buf := newTestBuffer(scratch[:hdrLen])
	_, err := buf.RecvMsgs().Next()
	require.ErrorIs(t, err, wgerr.ErrMultipartNotDone)
}

func TestAttrViewRejectedAfterGenerationAdvances(t *testing.T) {
	wire := buildGenericRequest(1, func(b Builder) Builder {
		return b.Attr(11, uint32(1))
	})
	buf := newTestBuffer(wire)
	part, err := buf.RecvMsgs().Next()
	require.NoError(t, err)

	av, err := part.Attributes().Next()
	require.NoError(t, err)

	buf.gen++ // simulate a refill happening underneath this view
	_, err = av.GetBytes()
	require.Error(t, err)
}
