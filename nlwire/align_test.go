// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package nlwire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlignRoundsUpToFourByteBoundary(t *testing.T) {
	cases := map[int]int{
		0:  0,
		1:  4,
		2:  4,
		3:  4,
		4:  4,
		5:  8,
		16: 16,
		17: 20,
	}
	for in, want := range cases {
		require.Equal(t, want, Align(in), "Align(%d)", in)
	}
}

func TestHostEndianRoundTripsUint32(t *testing.T) {
	buf := make([]byte, 4)
	HostEndian.PutUint32(buf, 0xAABBCCDD)
	require.Equal(t, uint32(0xAABBCCDD), HostEndian.Uint32(buf))
}
