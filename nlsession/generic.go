// Copyright 2017 Microsoft. All rights reserved.
// MIT License

package nlsession

import (
	"io"

	"golang.org/x/sys/unix"

	"github.com/Azure/azure-container-networking/log"
	"github.com/Azure/azure-container-networking/nlcodec"
	"github.com/Azure/azure-container-networking/nlwire"
	"github.com/Azure/azure-container-networking/wgerr"
)

// GenericSession is a bound Generic-Netlink conversation with one resolved
// family: the socket, the family id CTRL_CMD_GETFAMILY returned, and the
// multicast group name-to-id table advertised alongside it.
type GenericSession struct {
	s        *session
	buf      *nlcodec.Buffer
	familyID uint16
	groups   map[string]uint32
}

// DialGeneric opens a NETLINK_GENERIC socket and resolves familyName to its
// numeric id and multicast groups via CTRL_CMD_GETFAMILY, the way every
// Generic-Netlink consumer (wg, nl80211, ...) must bootstrap before issuing
// family-specific commands.
func DialGeneric(familyName string) (*GenericSession, error) {
	sess, err := newSession(unix.NETLINK_GENERIC)
	if err != nil {
		return nil, err
	}

	ctrlBuf := nlcodec.NewBuffer(sess.fd, nlwire.MinBufferSize, uint16(nlwire.GenlIDCtrl), false)

	var familyID uint16
	groups := map[string]uint32{}

	err = sess.sendAndCollect(uint16(nlwire.GenlIDCtrl), func(b nlcodec.Builder) nlcodec.Builder {
		return b.Generic(uint8(nlwire.CtrlCmdGetFamily)).
			AttrBytes(uint16(nlwire.CtrlAttrFamilyName), nulTerminate(familyName))
	}, ctrlBuf, func(part *nlcodec.MsgPart) error {
		return parseFamilyReply(part, &familyID, groups)
	})
	if err != nil {
		sess.close()
		return nil, err
	}
	if familyID == 0 {
		sess.close()
		return nil, wgerr.Otherf("generic netlink family %q not found", familyName)
	}

	buf := nlcodec.NewBuffer(sess.fd, nlwire.MinBufferSize, familyID, false)
	log.Debugf("[nlsession] resolved family %q to id %d, %d groups\n", familyName, familyID, len(groups))

	return &GenericSession{s: sess, buf: buf, familyID: familyID, groups: groups}, nil
}

func parseFamilyReply(part *nlcodec.MsgPart, familyID *uint16, groups map[string]uint32) error {
	it := part.Attributes()
	for {
		av, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch av.Type() {
		case uint16(nlwire.CtrlAttrFamilyID):
			id, err := nlcodec.GetUint[uint16](av)
			if err != nil {
				return err
			}
			*familyID = id

		case uint16(nlwire.CtrlAttrMcastGroups):
			if err := parseMcastGroups(av, groups); err != nil {
				return err
			}
		}
	}
}

func parseMcastGroups(groupsAttr *nlcodec.AttrView, groups map[string]uint32) error {
	entries := groupsAttr.Attributes()
	for {
		entry, err := entries.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var name string
		var id uint32
		fields := entry.Attributes()
		for {
			f, err := fields.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			switch f.Type() {
			case uint16(nlwire.CtrlAttrMcastGrpName):
				name, err = f.GetString()
				if err != nil {
					return err
				}
			case uint16(nlwire.CtrlAttrMcastGrpID):
				id, err = nlcodec.GetUint[uint32](f)
				if err != nil {
					return err
				}
			}
		}
		if name != "" {
			groups[name] = id
		}
	}
}

// FamilyID returns the resolved numeric family id.
func (g *GenericSession) FamilyID() uint16 { return g.familyID }

// Buffer returns the receive buffer bound to this session's socket.
func (g *GenericSession) Buffer() *nlcodec.Buffer { return g.buf }

// Request sends a command to this family and streams the response parts to
// onPart. Set dump when the command expects a multi-message reply (for
// example a device configuration dump).
func (g *GenericSession) Request(cmd uint8, dump bool, build func(nlcodec.Builder) nlcodec.Builder, onPart func(*nlcodec.MsgPart) error) error {
	return g.s.sendAndCollect(g.familyID, func(b nlcodec.Builder) nlcodec.Builder {
		b = b.Generic(cmd)
		if dump {
			b = b.Dump()
		}
		if build != nil {
			b = build(b)
		}
		return b
	}, g.buf, onPart)
}

// Subscribe joins the multicast group groupName advertises for this
// family, on a fresh socket rather than the primary request/response one —
// subscribing on the primary socket would disturb its sequence-number
// correlation, so the returned buffer owns its own fd and can be drained
// independently of Request. The caller is responsible for closing it.
func (g *GenericSession) Subscribe(groupName string) (*nlcodec.Buffer, error) {
	id, ok := g.groups[groupName]
	if !ok {
		return nil, wgerr.ErrWrongGroupName
	}

	sub, err := newSession(unix.NETLINK_GENERIC)
	if err != nil {
		return nil, err
	}
	if err := sub.joinGroup(id); err != nil {
		sub.close()
		return nil, err
	}

	return nlcodec.NewBuffer(sub.fd, nlwire.MinBufferSize, g.familyID, true), nil
}

// Close releases the underlying socket.
func (g *GenericSession) Close() error { return g.s.close() }

func nulTerminate(s string) []byte {
	return append([]byte(s), 0)
}
