// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package impair

import (
	"bytes"
	"math/rand"
	"testing"
)

// udpPacket builds a minimal IPv4/UDP packet: 20-byte IP header (IHL=5,
// protocol UDP), 8-byte UDP header, then payload.
func udpPacket(payload []byte) []byte {
	b := make([]byte, 28+len(payload))
	b[0] = 0x45
	b[9] = protocolUDP
	copy(b[28:], payload)
	return b
}

func TestInjectNoOpWhenRateZero(t *testing.T) {
	in := udpPacket([]byte{0xAA, 0xAA, 0xAA, 0xAA})
	rng := rand.New(rand.NewSource(1))

	out := Inject(in, 0, 0, rng)
	if !bytes.Equal(out, in) {
		t.Error("Inject with rate 0 must return the input unchanged")
	}
}

func TestInjectPreservesLength(t *testing.T) {
	in := udpPacket([]byte{0xAA, 0xAA, 0xAA, 0xAA})
	rng := rand.New(rand.NewSource(1))

	out := Inject(in, 0.5, 0, rng)
	if len(out) != len(in) {
		t.Errorf("len(out) = %d, want %d", len(out), len(in))
	}
}

func TestInjectPreservesProtectedPrefix(t *testing.T) {
	in := udpPacket([]byte{0xAA, 0xAA, 0xAA, 0xAA})
	rng := rand.New(rand.NewSource(42))

	out := Inject(in, 1.0, 0, rng)
	prefix := protectedPrefixLen(in)
	if !bytes.Equal(out[:prefix], in[:prefix]) {
		t.Errorf("header prefix mutated: got %x, want %x", out[:prefix], in[:prefix])
	}
}

// TestInjectDeterministicFullFlip mirrors the spec's S3 scenario: a full
// per-bit flip probability applied to a UDP payload of 0xAA bytes must
// yield 0x55 (every bit flipped) with the IP+UDP header untouched.
func TestInjectDeterministicFullFlip(t *testing.T) {
	in := udpPacket([]byte{0xAA, 0xAA, 0xAA, 0xAA})
	rng := rand.New(rand.NewSource(7))

	out := Inject(in, 1.0, 0, rng)

	if !bytes.Equal(out[:28], in[:28]) {
		t.Errorf("header bytes changed: got %x, want %x", out[:28], in[:28])
	}
	want := []byte{0x55, 0x55, 0x55, 0x55}
	if !bytes.Equal(out[28:], want) {
		t.Errorf("payload = %x, want %x", out[28:], want)
	}
}

func TestInjectRejectsShortAndNonIPv4Packets(t *testing.T) {
	short := make([]byte, 10)
	rng := rand.New(rand.NewSource(1))
	if out := Inject(short, 1.0, 0, rng); !bytes.Equal(out, short) {
		t.Error("short packet must be returned unchanged")
	}

	ipv6 := udpPacket([]byte{0xAA})
	ipv6[0] = 0x60
	if out := Inject(ipv6, 1.0, 0, rng); !bytes.Equal(out, ipv6) {
		t.Error("non-IPv4 packet must be returned unchanged")
	}
}

func TestProtectedPrefixLenTCP(t *testing.T) {
	b := make([]byte, 40)
	b[0] = 0x45
	b[9] = protocolTCP
	b[20+12] = 0x50 // data offset 5 -> 20 bytes
	if got := protectedPrefixLen(b); got != 40 {
		t.Errorf("protectedPrefixLen = %d, want 40 (20 IP + 20 TCP)", got)
	}
}

func TestProtectedPrefixLenUnknownProtocolIsIPHeaderOnly(t *testing.T) {
	b := make([]byte, 40)
	b[0] = 0x45
	b[9] = 1 // ICMP
	if got := protectedPrefixLen(b); got != 20 {
		t.Errorf("protectedPrefixLen = %d, want 20", got)
	}
}

func TestGaussClampedNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 1000; i++ {
		if v := gaussClamped(0, 1000, rng); v < 0 {
			t.Fatalf("gaussClamped returned negative value %v", v)
		}
	}
}
