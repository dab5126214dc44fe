// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package nlwire

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Fixed sizes of the wire structs below, named to match the equivalent
// Sizeof* constants on the kernel structs they alias.
const (
	SizeofNlMsghdr   = unix.SizeofNlMsghdr
	SizeofGenlmsghdr = unsafe.Sizeof(unix.Genlmsghdr{})
	SizeofIfInfomsg  = unix.SizeofIfInfomsg
	SizeofNlAttr     = unix.SizeofNlAttr

	// MaxMessageSize bounds a single serialized request.
	MaxMessageSize = 2048

	// MinBufferSize is the minimum capacity of a receive buffer.
	MinBufferSize = 4096
)

// Attribute type bits. The low 14 bits carry the semantic id.
const (
	AttrNested       = unix.NLA_F_NESTED
	AttrNetByteOrder = unix.NLA_F_NET_BYTEORDER
	AttrTypeMask     = AttrNested | AttrNetByteOrder
)

// Netlink message flags used across both dialects.
const (
	FlagRequest      = unix.NLM_F_REQUEST
	FlagMulti        = unix.NLM_F_MULTI
	FlagAck          = unix.NLM_F_ACK
	FlagRoot         = unix.NLM_F_ROOT
	FlagMatch        = unix.NLM_F_MATCH
	FlagDump         = unix.NLM_F_DUMP // NLM_F_ROOT | NLM_F_MATCH
	FlagDumpIntr     = unix.NLM_F_DUMP_INTR
	FlagDumpFiltered = unix.NLM_F_DUMP_FILTERED
	FlagCreate       = unix.NLM_F_CREATE
	FlagExcl         = unix.NLM_F_EXCL
	FlagCapped       = unix.NLM_F_CAPPED
)

// Control message types, shared by every family.
const (
	MsgNoop  = unix.NLMSG_NOOP
	MsgError = unix.NLMSG_ERROR
	MsgDone  = unix.NLMSG_DONE
)

// NlMsghdr is the 16-byte main Netlink header. It is an alias of
// unix.NlMsghdr rather than a hand-copied struct, since the wire layout is
// defined by the kernel ABI that package already exposes byte-for-byte.
type NlMsghdr = unix.NlMsghdr

// GenlMsghdr is the generic-family sub-header: command, version, reserved.
// unix.Genlmsghdr is unexported-field-free and matches the wire layout
// exactly.
type GenlMsghdr = unix.Genlmsghdr

// IfInfomsg is the route-family link sub-header (ifinfomsg).
type IfInfomsg = unix.IfInfomsg

// NlAttr is the 4-byte attribute header: length, type.
type NlAttr = unix.NlAttr

// GenlVersion is the version field every generic sub-header carries.
const GenlVersion = 1

// Control (generic-netlink bookkeeping) family constants.
const (
	GenlIDCtrl           = unix.GENL_ID_CTRL
	CtrlCmdGetFamily     = unix.CTRL_CMD_GETFAMILY
	CtrlAttrFamilyID     = unix.CTRL_ATTR_FAMILY_ID
	CtrlAttrFamilyName   = unix.CTRL_ATTR_FAMILY_NAME
	CtrlAttrMcastGroups  = unix.CTRL_ATTR_MCAST_GROUPS
	CtrlAttrMcastGrpName = unix.CTRL_ATTR_MCAST_GRP_NAME
	CtrlAttrMcastGrpID   = unix.CTRL_ATTR_MCAST_GRP_ID
)

// Route family constants.
const (
	RtmNewLink = unix.RTM_NEWLINK
	RtmDelLink = unix.RTM_DELLINK
	RtmGetLink = unix.RTM_GETLINK
	RtmGrpLink = unix.RTMGRP_LINK

	IflaIfname   = unix.IFLA_IFNAME
	IflaLinkinfo = unix.IFLA_LINKINFO

	// IflaInfoKind is the nested sub-attribute holding the link-type name
	// inside IFLA_LINKINFO. Not exposed by golang.org/x/sys/unix, so it is
	// hard-coded here from the kernel's own rtnetlink.h.
	IflaInfoKind = 1

	// ChangeMaskAll is the ifinfomsg.Change value meaning "apply all flags
	// below", used on every outgoing RTM_NEWLINK/RTM_GETLINK request.
	ChangeMaskAll = 0xFFFFFFFF
)
