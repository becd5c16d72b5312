// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux || simulator
// +build !linux simulator

package main

import (
	"grimm.is/moonlink/internal/logging"
	"grimm.is/moonlink/internal/queueengine"
)

func newPlatformProvider(logger *logging.Logger) queueengine.Provider {
	logger.Warn("moonlink: running against the simulated NFQUEUE provider, no real packets are intercepted")
	return queueengine.NewSimProvider()
}
