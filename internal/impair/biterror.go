// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package impair implements the per-packet bit-error injector: a Gaussian
// bit-flip probability applied to everything past the protected header
// prefix, leaving IP and TCP/UDP headers untouched.
package impair

import "math/rand"

// protocolTCP and protocolUDP are the IP protocol numbers the injector
// recognizes to extend the protected prefix past the IP header.
const (
	protocolTCP = 6
	protocolUDP = 17
)

// Inject applies the bit-error algorithm to b using parameters baseRate and
// rateStddev, drawing from rng. It returns b unmodified if the packet is
// too short, isn't IPv4, or baseRate is non-positive; otherwise it returns
// a newly allocated buffer of the same length with payload bits flipped
// independently at the sampled probability.
func Inject(b []byte, baseRate, rateStddev float64, rng *rand.Rand) []byte {
	if len(b) < 20 || b[0]>>4 != 4 {
		return b
	}
	if baseRate <= 0 {
		return b
	}

	p := gaussClamped(baseRate, rateStddev, rng)
	if p <= 0 {
		return b
	}

	prefixLen := protectedPrefixLen(b)

	out := make([]byte, len(b))
	copy(out, b)

	for i := prefixLen; i < len(out); i++ {
		for bit := 0; bit < 8; bit++ {
			if rng.Float64() < p {
				out[i] ^= 1 << bit
			}
		}
	}

	return out
}

// protectedPrefixLen returns the number of leading bytes Inject must leave
// untouched: the IP header, plus the TCP or UDP header if recognized and
// fully present.
func protectedPrefixLen(b []byte) int {
	ihl := int(b[0]&0x0F) * 4
	if ihl < 20 || ihl > len(b) {
		ihl = 20
		if ihl > len(b) {
			return len(b)
		}
	}

	if len(b) < 10 {
		return ihl
	}
	protocol := b[9]

	switch protocol {
	case protocolTCP:
		if len(b) >= ihl+13 {
			dataOffset := int(b[ihl+12]>>4) * 4
			if dataOffset >= 20 && ihl+dataOffset <= len(b) {
				return ihl + dataOffset
			}
		}
	case protocolUDP:
		if len(b) >= ihl+8 {
			return ihl + 8
		}
	}

	return ihl
}

// gaussClamped draws from a Gaussian with the given mean/stddev and clamps
// negative samples to 0, matching the engine-wide clamping rule for every
// Gaussian-sampled rate in the impairment pipeline.
func gaussClamped(mean, stddev float64, rng *rand.Rand) float64 {
	sample := mean
	if stddev > 0 {
		sample = mean + rng.NormFloat64()*stddev
	}
	if sample < 0 {
		return 0
	}
	return sample
}
