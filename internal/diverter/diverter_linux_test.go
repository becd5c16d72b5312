// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package diverter

import (
	"testing"

	"grimm.is/moonlink/internal/linkconfig"
	"grimm.is/moonlink/internal/testutil"
)

// TestNFTablesDiverterUpDown requires real netlink access and mutates the
// host's nftables ruleset, so it only runs inside the disposable network
// namespace the VM harness provides.
func TestNFTablesDiverterUpDown(t *testing.T) {
	testutil.RequireVM(t)

	d := NewNFTablesDiverter()
	if err := d.Up(linkconfig.Configuration{}); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := d.Down(); err != nil {
		t.Fatalf("Down: %v", err)
	}
}

func TestNFTablesDiverterDownWithoutUpIsSafe(t *testing.T) {
	testutil.RequireVM(t)

	d := NewNFTablesDiverter()
	if err := d.Down(); err != nil {
		t.Fatalf("Down without prior Up returned error: %v", err)
	}
}
