// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package packetview wraps an NFQUEUE packet payload with the minimal
// ownership bookkeeping the impairment engine needs: a view may either own
// its own copy of the bytes, or borrow a caller-owned buffer that must not
// be retained past the callback that produced it.
package packetview

import (
	"time"

	"grimm.is/moonlink/internal/errors"
	"grimm.is/moonlink/internal/linkkind"
)

// View is a single intercepted packet together with its NFQUEUE metadata
// and resolved link classification.
type View struct {
	id         uint32
	bytes      []byte
	owns       bool
	mark       uint32
	receivedAt time.Time
	link       linkkind.Kind
}

// NewOwning builds a View that copies b, so the caller's buffer may be
// reused or discarded immediately after this call returns.
func NewOwning(id uint32, b []byte, mark uint32, receivedAt time.Time) *View {
	var owned []byte
	if len(b) > 0 {
		owned = append([]byte(nil), b...)
	}
	return newView(id, owned, true, mark, receivedAt)
}

// NewBorrowing builds a View that aliases b directly. The caller must not
// mutate or release b while the View is in use, and must not retain b past
// the lifetime of the callback that supplied it. Call PrepareForModification
// before writing through the View.
func NewBorrowing(id uint32, b []byte, mark uint32, receivedAt time.Time) *View {
	return newView(id, b, false, mark, receivedAt)
}

func newView(id uint32, b []byte, owns bool, mark uint32, receivedAt time.Time) *View {
	v := &View{
		id:         id,
		bytes:      b,
		owns:       owns,
		mark:       mark,
		receivedAt: receivedAt,
		link:       linkkind.Other,
	}
	if len(b) > 0 {
		v.link = linkkind.Classify(b)
	}
	return v
}

// Clone returns a copy of v with the same ownership as v: if v owns its
// bytes, the clone gets its own deep copy; if v borrows, the clone aliases
// the same buffer and inherits the same lifetime obligation. This matches
// the C++ original's copy constructor, which only deep-copies when the
// source owns its data.
func (v *View) Clone() *View {
	b := v.bytes
	if v.owns && len(b) > 0 {
		b = append([]byte(nil), b...)
	}
	return newView(v.id, b, v.owns, v.mark, v.receivedAt)
}

// ID returns the NFQUEUE packet ID this view was built from.
func (v *View) ID() uint32 { return v.id }

// Bytes returns the packet payload. Callers must not mutate the returned
// slice unless the view owns its data (see Owned); use
// PrepareForModification to obtain a writable view first.
func (v *View) Bytes() []byte { return v.bytes }

// Len returns the packet payload length in bytes.
func (v *View) Len() int { return len(v.bytes) }

// Owned reports whether the view holds its own copy of the bytes.
func (v *View) Owned() bool { return v.owns }

// Mark returns the packet's current NFQUEUE mark.
func (v *View) Mark() uint32 { return v.mark }

// SetMark updates the packet's NFQUEUE mark to be applied at verdict time.
func (v *View) SetMark(mark uint32) { v.mark = mark }

// ReceivedAt returns the time the engine received this packet.
func (v *View) ReceivedAt() time.Time { return v.receivedAt }

// Link returns the packet's resolved link classification.
func (v *View) Link() linkkind.Kind { return v.link }

// Allocator produces a writable copy of b. The default allocator used by
// PrepareForModification is a direct make+copy; tests may substitute one
// that returns nil to exercise the allocation-failure path.
type Allocator func(b []byte) []byte

func defaultAllocator(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

// PrepareForModification ensures the view owns a private copy of its bytes,
// copying a borrowed buffer in place if necessary. It is a no-op if the
// view already owns its data.
func (v *View) PrepareForModification() error {
	return v.PrepareForModificationWith(defaultAllocator)
}

// PrepareForModificationWith is PrepareForModification with an injectable
// allocator, kept as a seam so an allocation-failure path can be exercised
// in tests even though Go's allocator does not itself return nil on OOM.
func (v *View) PrepareForModificationWith(alloc Allocator) error {
	if v.owns || len(v.bytes) == 0 {
		return nil
	}

	cp := alloc(v.bytes)
	if cp == nil {
		return errors.New(errors.KindAllocationFailed, "packetview: failed to allocate buffer for modification")
	}

	v.bytes = cp
	v.owns = true
	return nil
}

// MutableBytes returns a writable view of the packet payload, copying a
// borrowed buffer first if necessary.
func (v *View) MutableBytes() ([]byte, error) {
	if err := v.PrepareForModification(); err != nil {
		return nil, err
	}
	return v.bytes, nil
}
