// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package shaper

import (
	"fmt"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"grimm.is/moonlink/internal/linkconfig"
)

// NetlinkShaper installs an HTB root qdisc plus one HTB class and netem
// child qdisc per classGroup on a single interface, the way the reference
// link manager builds bandwidth and latency shaping: root qdisc, one class
// per destination, a u32 filter selecting it, a netem qdisc hung off the
// class for delay.
type NetlinkShaper struct {
	ifaceName string
	linkIndex int
	installed bool
}

// NewNetlinkShaper builds a NetlinkShaper for the named interface (e.g. the
// veth or physical link carrying traffic to the rover/base hosts).
func NewNetlinkShaper(ifaceName string) *NetlinkShaper {
	return &NetlinkShaper{ifaceName: ifaceName}
}

func (s *NetlinkShaper) Up(cfg linkconfig.Configuration) error {
	link, err := netlink.LinkByName(s.ifaceName)
	if err != nil {
		return fmt.Errorf("shaper: link %q: %w", s.ifaceName, err)
	}
	s.linkIndex = link.Attrs().Index

	root := netlink.NewHtb(netlink.QdiscAttrs{
		LinkIndex: s.linkIndex,
		Handle:    netlink.MakeHandle(rootHandle, 0),
		Parent:    netlink.HANDLE_ROOT,
	})
	root.Defcls = 1

	if err := netlink.QdiscAdd(root); err != nil {
		return fmt.Errorf("shaper: adding htb root qdisc: %w", err)
	}

	for _, group := range classGroups {
		if err := s.addGroup(group, cfg); err != nil {
			return err
		}
	}

	s.installed = true
	return nil
}

func (s *NetlinkShaper) addGroup(group classGroup, cfg linkconfig.Configuration) error {
	params := cfg[group.paramKind]

	rateMbps := params.ThroughputLimitMbps
	if rateMbps <= 0 {
		rateMbps = 1000 // unshaped default: effectively unlimited on a test network
	}

	classHandle := netlink.MakeHandle(rootHandle, group.handle)
	class := netlink.NewHtbClass(
		netlink.ClassAttrs{
			LinkIndex: s.linkIndex,
			Handle:    classHandle,
			Parent:    netlink.MakeHandle(rootHandle, 0),
		},
		netlink.HtbClassAttrs{
			Rate:   uint64(rateMbps) * 1024 * 1024,
			Buffer: 10000,
			Prio:   1,
		},
	)
	if err := netlink.ClassAdd(class); err != nil {
		return fmt.Errorf("shaper: adding htb class %s: %w", group.name, err)
	}

	networkVal := uint32(group.network[0])<<24 | uint32(group.network[1])<<16 | uint32(group.network[2])<<8 | uint32(group.network[3])
	maskVal := uint32(group.mask[0])<<24 | uint32(group.mask[1])<<16 | uint32(group.mask[2])<<8 | uint32(group.mask[3])

	filter := &netlink.U32{
		FilterAttrs: netlink.FilterAttrs{
			LinkIndex: s.linkIndex,
			Parent:    netlink.MakeHandle(rootHandle, 0),
			Priority:  1,
			Protocol:  unix.ETH_P_IP,
		},
		Sel: &netlink.TcU32Sel{
			Keys: []netlink.TcU32Key{
				{
					Mask: maskVal,
					Val:  networkVal,
					Off:  16, // destination address offset in the IPv4 header
				},
			},
			Flags: netlink.TC_U32_TERMINAL,
		},
		ClassId: classHandle,
	}
	if err := netlink.FilterAdd(filter); err != nil {
		return fmt.Errorf("shaper: adding u32 filter for %s: %w", group.name, err)
	}

	if params.BaseLatencyMS > 0 {
		netemHandle := netlink.MakeHandle(group.handle, 0)
		netemQdisc := netlink.NewNetem(
			netlink.QdiscAttrs{
				LinkIndex: s.linkIndex,
				Parent:    classHandle,
				Handle:    netemHandle,
			},
			netlink.NetemQdiscAttrs{
				Latency: uint32(params.BaseLatencyMS * 1000),
				Jitter:  uint32(params.LatencyJitterMS * 1000),
				Limit:   300000,
			},
		)
		if err := netlink.QdiscAdd(netemQdisc); err != nil {
			return fmt.Errorf("shaper: adding netem qdisc for %s: %w", group.name, err)
		}
	}

	return nil
}

func (s *NetlinkShaper) Down() error {
	if !s.installed {
		return nil
	}
	root := &netlink.GenericQdisc{
		QdiscAttrs: netlink.QdiscAttrs{
			LinkIndex: s.linkIndex,
			Handle:    netlink.MakeHandle(rootHandle, 0),
			Parent:    netlink.HANDLE_ROOT,
		},
		QdiscType: "htb",
	}
	if err := netlink.QdiscDel(root); err != nil {
		return fmt.Errorf("shaper: removing htb root qdisc: %w", err)
	}
	s.installed = false
	return nil
}
