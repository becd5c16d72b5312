// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package linkconfig

import (
	"sync"

	"grimm.is/moonlink/internal/linkkind"
	"grimm.is/moonlink/internal/logging"
)

// Store holds the current Configuration behind a reader/writer lock,
// handing out non-tearing snapshots to concurrent readers while a Reload
// swaps the whole map under the writer lock.
type Store struct {
	mu     sync.RWMutex
	cfg    Configuration
	path   string
	logger *logging.Logger
}

// NewStore builds a Store. If path cannot be opened, the store starts from
// built-in defaults and the open error is returned so the caller can log
// it; the Store itself is always usable.
func NewStore(path string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.WithComponent("linkconfig")
	}

	s := &Store{path: path, logger: logger, cfg: Defaults()}

	cfg, err := parseFile(path, logger, false)
	if err != nil {
		return s, err
	}
	s.cfg = cfg
	return s, nil
}

// Snapshot returns a race-free value copy of the current configuration.
// Because Reload replaces the map wholesale under the writer lock rather
// than mutating it in place, a snapshot taken under the reader lock can
// never observe a half-written Configuration.
func (s *Store) Snapshot() Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// Parameters returns the current LinkParameters for a single link kind.
func (s *Store) Parameters(kind linkkind.Kind) LinkParameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg[kind]
}

// Reload re-reads the configuration file and, if it parses successfully
// with every required section present, swaps the store's configuration
// whole. On error — including a document missing a required section — the
// previous configuration is retained untouched and the error is returned
// to the caller.
func (s *Store) Reload() error {
	cfg, err := parseFile(s.path, s.logger, true)
	if err != nil {
		s.logger.Error("linkconfig: reload failed, keeping previous configuration", "error", err)
		return err
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.logger.Info("linkconfig: configuration reloaded", "path", s.path)
	return nil
}
