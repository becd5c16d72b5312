// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux || simulator
// +build !linux simulator

package shaper

import (
	"sync"

	"grimm.is/moonlink/internal/linkconfig"
)

// SimShaper satisfies lifecycle.Shaper without touching netlink.
type SimShaper struct {
	mu      sync.Mutex
	applied linkconfig.Configuration
}

// NewSimShaper builds a SimShaper.
func NewSimShaper() *SimShaper {
	return &SimShaper{}
}

func (s *SimShaper) Up(cfg linkconfig.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = cfg.Clone()
	return nil
}

func (s *SimShaper) Down() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = nil
	return nil
}

// Applied returns the configuration last passed to Up, or nil if Down was
// called since.
func (s *SimShaper) Applied() linkconfig.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}
