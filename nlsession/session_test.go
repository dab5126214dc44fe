// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package nlsession

import (
	"errors"
	"syscall"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/Azure/azure-container-networking/wgerr"
)

func TestNewSessionBindFailurePropagatesErrno(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sys := NewMockSysCalls(ctrl)
	sys.EXPECT().Socket(unix.AF_NETLINK, unix.SOCK_RAW, unix.NETLINK_GENERIC).Return(7, nil)
	sys.EXPECT().Bind(7, gomock.Any()).Return(syscall.EACCES)
	sys.EXPECT().Close(7).Return(nil)

	_, err := newSessionWith(sys, unix.NETLINK_GENERIC)
	require.Error(t, err)

	var wgErr *wgerr.Error
	require.True(t, errors.As(err, &wgErr))
	require.Equal(t, wgerr.OsError, wgErr.Kind)
	require.Equal(t, syscall.EACCES, wgErr.Errno)
}

func TestNewSessionSocketFailureIsWrapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sys := NewMockSysCalls(ctrl)
	sys.EXPECT().Socket(unix.AF_NETLINK, unix.SOCK_RAW, unix.NETLINK_ROUTE).Return(-1, syscall.EMFILE)

	_, err := newSessionWith(sys, unix.NETLINK_ROUTE)
	require.Error(t, err)
	require.Contains(t, err.Error(), "opening socket")
}

func TestJoinGroupRejectsZeroGroupId(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sys := NewMockSysCalls(ctrl)
	sys.EXPECT().Socket(gomock.Any(), gomock.Any(), gomock.Any()).Return(9, nil)
	sys.EXPECT().Bind(9, gomock.Any()).Return(nil)

	s, err := newSessionWith(sys, unix.NETLINK_ROUTE)
	require.NoError(t, err)

	err = s.joinGroup(0)
	require.ErrorIs(t, err, wgerr.ErrInvalidGroupId)
}

func TestJoinGroupCallsSetsockopt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sys := NewMockSysCalls(ctrl)
	sys.EXPECT().Socket(gomock.Any(), gomock.Any(), gomock.Any()).Return(9, nil)
	sys.EXPECT().Bind(9, gomock.Any()).Return(nil)
	sys.EXPECT().SetsockoptInt(9, unix.SOL_NETLINK, unix.NETLINK_ADD_MEMBERSHIP, 5).Return(nil)

	s, err := newSessionWith(sys, unix.NETLINK_ROUTE)
	require.NoError(t, err)
	require.NoError(t, s.joinGroup(5))
}
