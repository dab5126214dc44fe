// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package wgerr

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesByKindNotPointer(t *testing.T) {
	err := Otherf("family %s not found", "wireguard")
	require.True(t, errors.Is(err, &Error{Kind: Other}))
	require.False(t, errors.Is(err, ErrInvalid))
}

func TestFromErrnoMatchesSentinelIrrespectiveOfValue(t *testing.T) {
	err := FromErrno(syscall.ENODEV)
	require.True(t, errors.Is(err, &Error{Kind: OsError}))
}

func TestFromErrnoMatchesSpecificErrnoWhenRequested(t *testing.T) {
	err := FromErrno(syscall.ENODEV)
	require.True(t, errors.Is(err, &Error{Kind: OsError, Errno: syscall.ENODEV}))
	require.False(t, errors.Is(err, &Error{Kind: OsError, Errno: syscall.EINVAL}))
}

func TestUnwrapExposesUnderlyingIOError(t *testing.T) {
	underlying := errors.New("connection reset")
	err := FromIOErr(underlying)
	require.ErrorIs(t, err, underlying)
}

func TestErrorStringsIncludeHint(t *testing.T) {
	err := Invalidf("missing public key attribute")
	require.Contains(t, err.Error(), "missing public key attribute")
}

func TestKindStringCoversEveryValue(t *testing.T) {
	for k := Truncated; k <= IoError; k++ {
		require.NotEqual(t, "unknown", k.String())
	}
}
