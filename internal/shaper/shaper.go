// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package shaper installs and removes the latency/bandwidth shaping fed by
// the per-link parameters in an internal/linkconfig.Configuration. It
// satisfies the Shaper interface an internal/lifecycle.Controller depends
// on; the queue engine itself only ever injects bit errors and drops
// bursts — latency and throughput limiting live here, one level below the
// queue, the way a real impaired link would actually misbehave.
package shaper

import "grimm.is/moonlink/internal/linkkind"

// classGroup is one traffic-scheduler class: a coarse destination-address
// half of the test subnet, shaped with one htb rate and one netem profile.
// Exact per-Kind classification already happened upstream in the queue
// engine's nfmark; the scheduler only needs a good-enough split to keep
// rover-bound and base-bound traffic from starving each other, since tc's
// u32 classifier can match address prefixes but not the engine's nfmark
// without a filter type this stack doesn't carry.
type classGroup struct {
	name      string
	handle    uint16
	network   [4]byte
	mask      [4]byte
	paramKind linkkind.Kind
}

var classGroups = []classGroup{
	{name: "rover_bound", handle: 2, network: [4]byte{10, 237, 0, 0}, mask: [4]byte{255, 255, 255, 128}, paramKind: linkkind.BaseToRover},
	{name: "base_bound", handle: 3, network: [4]byte{10, 237, 0, 128}, mask: [4]byte{255, 255, 255, 128}, paramKind: linkkind.RoverToBase},
}

const rootHandle = 1
