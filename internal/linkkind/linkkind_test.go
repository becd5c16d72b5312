// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package linkkind

import (
	"encoding/binary"
	"testing"
)

func ipv4Packet(src, dst uint32) []byte {
	b := make([]byte, 20)
	b[0] = 0x45 // version 4, IHL 5
	binary.BigEndian.PutUint32(b[12:16], src)
	binary.BigEndian.PutUint32(b[16:20], dst)
	return b
}

func TestClassify(t *testing.T) {
	const (
		roverA = RoverMin
		roverB = RoverMax
		baseA  = BaseMin
		baseB  = BaseMax
		other  = uint32(8<<24 | 8<<16 | 8<<8 | 8)
	)

	cases := []struct {
		name     string
		src, dst uint32
		want     Kind
	}{
		{"rover_to_rover", roverA, roverB, RoverToMoon},
		{"rover_to_base", roverA, baseA, RoverToBase},
		{"base_to_rover", baseA, roverA, BaseToRover},
		{"base_to_base", baseA, baseB, BaseToBase},
		{"rover_to_outside", roverA, other, Other},
		{"outside_to_base", other, baseA, Other},
		{"outside_to_outside", other, other, Other},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(ipv4Packet(c.src, c.dst))
			if got != c.want {
				t.Errorf("Classify(%s) = %v, want %v", c.name, got, c.want)
			}
		})
	}
}

func TestClassifyRejectsNonIPv4AndShortPackets(t *testing.T) {
	if got := Classify(nil); got != Other {
		t.Errorf("nil packet: got %v, want Other", got)
	}
	if got := Classify(make([]byte, 10)); got != Other {
		t.Errorf("short packet: got %v, want Other", got)
	}

	ipv6 := ipv4Packet(RoverMin, BaseMin)
	ipv6[0] = 0x60
	if got := Classify(ipv6); got != Other {
		t.Errorf("ipv6 packet: got %v, want Other", got)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	if got := Classify(ipv4Packet(RoverMin-1, BaseMin)); got != Other {
		t.Errorf("just below rover range: got %v, want Other", got)
	}
	if got := Classify(ipv4Packet(RoverMax+1, BaseMin)); got != Other {
		t.Errorf("just above rover range: got %v, want Other", got)
	}
	if got := Classify(ipv4Packet(BaseMin-1, RoverMin)); got != Other {
		t.Errorf("gap between rover and base range: got %v, want Other", got)
	}
}
