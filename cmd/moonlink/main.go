// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command moonlink runs the lunar-surface link-impairment simulator: it
// diverts NFQUEUE traffic on the 10.237.0.0/24 test network, classifies it
// by the base/rover pairing involved, and injects bit errors and bursty
// packet loss per the configured link parameters.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"grimm.is/moonlink/internal/diverter"
	"grimm.is/moonlink/internal/lifecycle"
	"grimm.is/moonlink/internal/logging"
	"grimm.is/moonlink/internal/queueengine"
	"grimm.is/moonlink/internal/shaper"
	"grimm.is/moonlink/internal/validation"
)

func main() {
	configPath := flag.String("config", "/etc/moonlink/moonlink.hcl", "Path to the link-parameter HCL config file")
	interfaceName := flag.String("interface", "", "Network interface to shape (empty disables bandwidth/latency shaping)")
	divertMode := flag.String("divert", "auto", "Diversion mode: auto, nftables, none")
	seed := flag.Int64("seed", 1, "PRNG seed for bit-error injection and burst-loss timing")

	flag.Parse()

	args := flag.Args()
	subcmd := ""
	if len(args) > 0 {
		subcmd = args[0]
	}

	switch subcmd {
	case "", "run":
		runController(*configPath, *interfaceName, *divertMode, *seed)
	case "version":
		log.Println("moonlink dev build")
	default:
		log.Fatalf("unknown command: %s", subcmd)
	}
}

func runController(configPath, interfaceName, divertMode string, seed int64) {
	logger := logging.New(logging.DefaultConfig())

	opts := lifecycle.DefaultOptions(configPath, newProvider(logger))

	switch divertMode {
	case "none":
		// leave opts.Diverter as the default NoopDiverter
	case "auto", "nftables":
		opts.Diverter = diverter.NewNFTablesDiverter()
	default:
		log.Fatalf("unknown -divert mode: %s", divertMode)
	}

	if interfaceName != "" {
		if err := validation.ValidateInterfaceName(interfaceName); err != nil {
			log.Fatalf("moonlink: -interface: %v", err)
		}
		opts.Shaper = shaper.NewNetlinkShaper(interfaceName)
	}

	opts.Logger = logger
	opts.Seed = seed

	ctrl := lifecycle.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ctrl.Start(ctx); err != nil {
		log.Fatalf("moonlink: startup failed: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("moonlink: shutdown signal received")
	ctrl.Shutdown()
}

func newProvider(logger *logging.Logger) queueengine.Provider {
	return newPlatformProvider(logger)
}
