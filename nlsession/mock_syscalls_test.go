// Copyright 2017 Microsoft. All rights reserved.
// MIT License

// Code structured the way `mockgen` output for the sysCalls interface would
// look, hand-written here rather than generated since the interface is
// small and stable.
package nlsession

import (
	"reflect"

	"github.com/golang/mock/gomock"
	"golang.org/x/sys/unix"
)

type MockSysCalls struct {
	ctrl     *gomock.Controller
	recorder *MockSysCallsMockRecorder
}

type MockSysCallsMockRecorder struct {
	mock *MockSysCalls
}

func NewMockSysCalls(ctrl *gomock.Controller) *MockSysCalls {
	mock := &MockSysCalls{ctrl: ctrl}
	mock.recorder = &MockSysCallsMockRecorder{mock}
	return mock
}

func (m *MockSysCalls) EXPECT() *MockSysCallsMockRecorder { return m.recorder }

func (m *MockSysCalls) Socket(domain, typ, proto int) (int, error) {
	ret := m.ctrl.Call(m, "Socket", domain, typ, proto)
	fd, _ := ret[0].(int)
	err, _ := ret[1].(error)
	return fd, err
}

func (mr *MockSysCallsMockRecorder) Socket(domain, typ, proto interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Socket", reflect.TypeOf((*MockSysCalls)(nil).Socket), domain, typ, proto)
}

func (m *MockSysCalls) Bind(fd int, sa unix.Sockaddr) error {
	ret := m.ctrl.Call(m, "Bind", fd, sa)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockSysCallsMockRecorder) Bind(fd, sa interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Bind", reflect.TypeOf((*MockSysCalls)(nil).Bind), fd, sa)
}

func (m *MockSysCalls) Sendto(fd int, p []byte, flags int, to unix.Sockaddr) error {
	ret := m.ctrl.Call(m, "Sendto", fd, p, flags, to)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockSysCallsMockRecorder) Sendto(fd, p, flags, to interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Sendto", reflect.TypeOf((*MockSysCalls)(nil).Sendto), fd, p, flags, to)
}

func (m *MockSysCalls) SetsockoptInt(fd, level, opt, value int) error {
	ret := m.ctrl.Call(m, "SetsockoptInt", fd, level, opt, value)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockSysCallsMockRecorder) SetsockoptInt(fd, level, opt, value interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetsockoptInt", reflect.TypeOf((*MockSysCalls)(nil).SetsockoptInt), fd, level, opt, value)
}

func (m *MockSysCalls) Close(fd int) error {
	ret := m.ctrl.Call(m, "Close", fd)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockSysCallsMockRecorder) Close(fd interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Close", reflect.TypeOf((*MockSysCalls)(nil).Close), fd)
}
