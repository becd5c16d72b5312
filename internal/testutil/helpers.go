// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package testutil holds small test-only helpers shared across packages.
package testutil

import (
	"os"
	"testing"
)

// RequireVM skips the test unless MOONLINK_VM_TEST is set. The diverter and
// shaper's Linux implementations touch real netlink/nftables state that
// unit tests should not mutate on a developer's machine or CI runner; tests
// gated by this only run in the loopback-VM harness where that's safe.
func RequireVM(t *testing.T) {
	t.Helper()
	if os.Getenv("MOONLINK_VM_TEST") == "" {
		t.Skip("skipping: requires MOONLINK_VM_TEST=1 in a disposable network namespace")
	}
}
