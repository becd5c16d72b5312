// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package diverter

import (
	"fmt"

	"github.com/google/nftables"
	"github.com/google/nftables/expr"

	"grimm.is/moonlink/internal/linkconfig"
)

// NFTablesDiverter installs two forward-hook rules, one matching the source
// and one the destination address, that together queue every packet whose
// source or destination falls inside the test subnet to the
// queue engine's NFQUEUE, using the google/nftables library the same way
// the reference firewall's packet-counter reader talks to nftables: direct
// netlink, no shelled-out nft binary.
type NFTablesDiverter struct {
	conn  *nftables.Conn
	table *nftables.Table
}

// NewNFTablesDiverter builds an NFTablesDiverter. Up opens the netlink
// connection; a single instance is not safe to Up twice concurrently.
func NewNFTablesDiverter() *NFTablesDiverter {
	return &NFTablesDiverter{}
}

// Up installs the table, chain, and the two src/dst diversion rules. cfg is
// accepted to satisfy the lifecycle.Diverter interface; the diversion rule
// itself doesn't vary with per-link parameters, only with the fixed test
// subnet the queue engine's classifier recognizes.
func (d *NFTablesDiverter) Up(cfg linkconfig.Configuration) error {
	conn, err := nftables.New()
	if err != nil {
		return fmt.Errorf("diverter: connecting to netlink: %w", err)
	}
	d.conn = conn

	table := conn.AddTable(&nftables.Table{
		Name:   TableName,
		Family: nftables.TableFamilyINet,
	})
	d.table = table

	chain := conn.AddChain(&nftables.Chain{
		Name:     ChainName,
		Table:    table,
		Type:     nftables.ChainTypeFilter,
		Hooknum:  nftables.ChainHookForward,
		Priority: nftables.ChainPriorityFilter,
	})

	conn.AddRule(&nftables.Rule{
		Table: table,
		Chain: chain,
		Exprs: subnetMatchExprs(12), // source address offset
	})
	conn.AddRule(&nftables.Rule{
		Table: table,
		Chain: chain,
		Exprs: subnetMatchExprs(16), // destination address offset
	})

	if err := conn.Flush(); err != nil {
		return fmt.Errorf("diverter: flushing ruleset: %w", err)
	}
	return nil
}

// subnetMatchExprs builds the expression chain for "if the IPv4 address at
// the given network-header offset lies in 10.237.0.0/24, queue it." offset
// is 12 for the source address, 16 for the destination, per the IPv4 header
// layout.
func subnetMatchExprs(offset uint32) []expr.Any {
	return []expr.Any{
		&expr.Payload{
			DestRegister: 1,
			Base:         expr.PayloadBaseNetworkHeader,
			Offset:       offset,
			Len:          4,
		},
		&expr.Bitwise{
			SourceRegister: 1,
			DestRegister:   1,
			Len:            4,
			Mask:           subnetMask[:],
			Xor:            []byte{0, 0, 0, 0},
		},
		&expr.Cmp{
			Op:       expr.CmpOpEq,
			Register: 1,
			Data:     subnetNetwork[:],
		},
		&expr.Queue{
			Num: QueueNum,
		},
	}
}

// Down removes the table, undoing everything Up installed. It's safe to
// call even if Up never succeeded.
func (d *NFTablesDiverter) Down() error {
	if d.table == nil {
		return nil
	}
	conn := d.conn
	if conn == nil {
		var err error
		conn, err = nftables.New()
		if err != nil {
			return fmt.Errorf("diverter: connecting to netlink: %w", err)
		}
	}
	conn.DelTable(d.table)
	if err := conn.Flush(); err != nil {
		return fmt.Errorf("diverter: removing table: %w", err)
	}
	d.table = nil
	return nil
}
