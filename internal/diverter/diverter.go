// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package diverter installs and removes the kernel rule that hands
// lunar-network traffic to the queue engine's NFQUEUE. It satisfies the
// Diverter interface an internal/lifecycle.Controller depends on; a
// Controller built with lifecycle.NoopDiverter never imports this package
// at all, so an operator who installs the diversion rule out-of-band
// carries none of its dependency weight.
package diverter

// TableName is the nftables table this package owns.
const TableName = "moonlink"

// ChainName is the forward-hook chain holding the diversion rule.
const ChainName = "divert"

// QueueNum is the NFQUEUE number the diversion rule sends matched packets
// to; it must match the ProviderConfig.QueueNum the queue engine opens.
const QueueNum uint16 = 0

// subnetNetwork and subnetMask bound the lunar-surface test network the
// diversion rule matches against: 10.237.0.0/24.
var (
	subnetNetwork = [4]byte{10, 237, 0, 0}
	subnetMask    = [4]byte{255, 255, 255, 0}
)
