// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package queueengine dispatches packets delivered by a kernel packet queue
// through classification, burst-drop, and bit-error injection, then issues a
// verdict back to the kernel. The kernel queue boundary itself is abstracted
// behind Provider so the dispatch logic runs identically against the real
// Linux NFQUEUE and an in-memory simulator.
package queueengine

import "context"

// Verdict is the disposition returned to the kernel for a packet. Its
// integer values match the NFQUEUE wire values directly.
type Verdict int

const (
	VerdictDrop   Verdict = 0
	VerdictAccept Verdict = 1
)

func (v Verdict) String() string {
	if v == VerdictAccept {
		return "accept"
	}
	return "drop"
}

// ProviderConfig carries the kernel queue boundary parameters from spec.md
// §6: a fixed queue number, a per-packet copy ceiling, and a best-effort
// receive socket buffer size.
type ProviderConfig struct {
	QueueNum           uint16
	MaxPacketLen       uint32
	ReceiveBufferBytes int
}

// DefaultProviderConfig returns the queue boundary spec.md §6 mandates:
// queue 0, full packet copy up to the maximum IPv4 packet size, a 1 MiB
// receive buffer.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		QueueNum:           0,
		MaxPacketLen:       65536,
		ReceiveBufferBytes: 1 << 20,
	}
}

// PacketHandler is invoked once per packet the provider's receive loop
// delivers. id identifies the packet for the verdict call that must follow;
// mark is the kernel-attached mark, 0 if the kernel attached none. The
// handler is responsible for eventually calling SetVerdict or
// SetVerdictModified on the same Provider; Provider implementations do not
// issue a verdict on the handler's behalf.
type PacketHandler func(id uint32, payload []byte, mark uint32)

// Provider abstracts the kernel queue boundary: opening the queue, running
// its receive loop against a handler, issuing verdicts, and tearing down.
type Provider interface {
	Open(cfg ProviderConfig) error
	Register(ctx context.Context, handler PacketHandler) error
	SetVerdict(id uint32, verdict Verdict, mark uint32) error
	SetVerdictModified(id uint32, verdict Verdict, mark uint32, payload []byte) error
	Close() error
}
