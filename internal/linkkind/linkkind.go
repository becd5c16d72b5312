// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package linkkind classifies IPv4 packets into one of the four base/rover
// link pairings the impairment engine models.
package linkkind

import "encoding/binary"

// Kind identifies which of the four base/rover link pairings a packet
// belongs to, or Other if it belongs to neither address range.
type Kind uint8

const (
	// BaseToBase is traffic between two base-network addresses.
	BaseToBase Kind = iota
	// BaseToRover is traffic from a base address to a rover address.
	BaseToRover
	// RoverToBase is traffic from a rover address to a base address.
	RoverToBase
	// RoverToMoon is traffic between two rover-network addresses.
	RoverToMoon
	// Other is any packet that isn't IPv4, too short to carry an IP
	// header, or whose source/destination fall outside both ranges.
	Other
)

func (k Kind) String() string {
	switch k {
	case BaseToBase:
		return "base_to_base"
	case BaseToRover:
		return "base_to_rover"
	case RoverToBase:
		return "rover_to_base"
	case RoverToMoon:
		return "rover_to_moon"
	default:
		return "other"
	}
}

// Address range constants for the lunar-surface test network, a single
// 10.237.0.0/24 split between rover and base hosts.
const (
	RoverMin uint32 = 10<<24 | 237<<16 | 0<<8 | 2   // 10.237.0.2
	RoverMax uint32 = 10<<24 | 237<<16 | 0<<8 | 120 // 10.237.0.120
	BaseMin  uint32 = 10<<24 | 237<<16 | 0<<8 | 130 // 10.237.0.130
	BaseMax  uint32 = 10<<24 | 237<<16 | 0<<8 | 253 // 10.237.0.253
)

func isRoverIP(ip uint32) bool { return ip >= RoverMin && ip <= RoverMax }
func isBaseIP(ip uint32) bool  { return ip >= BaseMin && ip <= BaseMax }

// Classify inspects the IPv4 header of b and returns the link Kind for the
// packet's source/destination pairing. It returns Other for anything that
// isn't a well-formed IPv4 packet, or whose addresses fall outside both the
// rover and base ranges.
func Classify(b []byte) Kind {
	srcIP, dstIP, ok := extractIPs(b)
	if !ok {
		return Other
	}

	isSrcRover := isRoverIP(srcIP)
	isSrcBase := isBaseIP(srcIP)
	isDstRover := isRoverIP(dstIP)
	isDstBase := isBaseIP(dstIP)

	switch {
	case isSrcRover && isDstRover:
		return RoverToMoon
	case isSrcRover && isDstBase:
		return RoverToBase
	case isSrcBase && isDstRover:
		return BaseToRover
	case isSrcBase && isDstBase:
		return BaseToBase
	default:
		return Other
	}
}

// extractIPs reads the source and destination addresses from an IPv4
// header. It returns ok=false if b is too short to hold an IP header or
// does not carry IPv4 (version nibble != 4).
func extractIPs(b []byte) (src, dst uint32, ok bool) {
	if len(b) < 20 {
		return 0, 0, false
	}

	version := b[0] >> 4
	if version != 4 {
		return 0, 0, false
	}

	src = binary.BigEndian.Uint32(b[12:16])
	dst = binary.BigEndian.Uint32(b[16:20])
	return src, dst, true
}
