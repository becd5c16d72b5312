// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux || simulator
// +build !linux simulator

package diverter

import (
	"sync"

	"grimm.is/moonlink/internal/linkconfig"
)

// SimDiverter satisfies lifecycle.Diverter without touching netlink, for
// platforms without NFQUEUE/nftables or for tests that want to observe
// Up/Down calls without a real kernel underneath them.
type SimDiverter struct {
	mu  sync.Mutex
	ups int
}

// NewSimDiverter builds a SimDiverter.
func NewSimDiverter() *SimDiverter {
	return &SimDiverter{}
}

func (d *SimDiverter) Up(linkconfig.Configuration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ups++
	return nil
}

func (d *SimDiverter) Down() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ups--
	return nil
}

// Installed reports whether Up has been called more times than Down.
func (d *SimDiverter) Installed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ups > 0
}
