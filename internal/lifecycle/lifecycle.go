// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package lifecycle owns the startup and shutdown ordering for a moonlink
// process: configuration store, external diverter and shaper, the queue
// engine, and the burst-loss supervisors, brought up and torn down in the
// fixed order the dispatch path depends on.
package lifecycle

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"grimm.is/moonlink/internal/burstloss"
	"grimm.is/moonlink/internal/errors"
	"grimm.is/moonlink/internal/linkconfig"
	"grimm.is/moonlink/internal/logging"
	"grimm.is/moonlink/internal/metrics"
	"grimm.is/moonlink/internal/queueengine"
)

// Diverter installs and removes whatever kernel rule diverts traffic into
// the queue engine's NFQUEUE (e.g. an nftables rule). A no-op
// implementation is used when an operator installs that rule out-of-band.
type Diverter interface {
	Up(cfg linkconfig.Configuration) error
	Down() error
}

// Shaper installs and removes per-class latency/bandwidth shaping fed by
// the classification marks the queue engine emits. A no-op implementation
// is used when latency/bandwidth shaping is handled out-of-band.
type Shaper interface {
	Up(cfg linkconfig.Configuration) error
	Down() error
}

// NoopDiverter satisfies Diverter without touching the kernel.
type NoopDiverter struct{}

func (NoopDiverter) Up(linkconfig.Configuration) error { return nil }
func (NoopDiverter) Down() error                       { return nil }

// NoopShaper satisfies Shaper without touching the kernel.
type NoopShaper struct{}

func (NoopShaper) Up(linkconfig.Configuration) error { return nil }
func (NoopShaper) Down() error                       { return nil }

// Options configures a Controller.
type Options struct {
	ConfigPath string
	Provider   queueengine.Provider
	Diverter   Diverter
	Shaper     Shaper
	Logger     *logging.Logger
	Metrics    *metrics.LinkMetrics
	Seed       int64

	// EnableCrashSupervision turns on the in-memory crash-window tracker
	// that flips the engine into impairment-bypass mode after repeated
	// dispatch panics. Off in a zero Options; DefaultOptions turns it on
	// when the process is not running interactively. Never engaged by the
	// conformance scenarios, which assume bypass mode stays off.
	EnableCrashSupervision bool
	CrashThreshold         int
	CrashWindow            time.Duration
}

// DefaultOptions returns Options with a no-op diverter/shaper, a seed of 1,
// and crash supervision auto-detected the way the teacher's own supervisor
// package detects whether it is running under a service manager.
func DefaultOptions(configPath string, provider queueengine.Provider) Options {
	return Options{
		ConfigPath:             configPath,
		Provider:               provider,
		Diverter:               NoopDiverter{},
		Shaper:                 NoopShaper{},
		Seed:                   1,
		EnableCrashSupervision: !runningInteractively(),
		CrashThreshold:         3,
		CrashWindow:            5 * time.Minute,
	}
}

// runningInteractively mirrors the teacher's ShouldSkipDetection: crash
// supervision only makes sense under a service manager, not at an
// interactive terminal or outside systemd.
func runningInteractively() bool {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return true
	}
	if os.Getppid() != 1 && os.Getenv("INVOCATION_ID") == "" {
		return true
	}
	return false
}

// Controller owns the full startup/shutdown sequence from construction
// through teardown: Configuration Store, Diverter, Shaper, Queue Engine,
// Burst-Loss Supervisor.
type Controller struct {
	opts   Options
	logger *logging.Logger
	runID  uuid.UUID

	store      *linkconfig.Store
	supervisor *burstloss.Supervisor
	engine     *queueengine.Engine
	cancel     context.CancelFunc

	crashMu sync.Mutex
	crashes []time.Time
}

// New builds a Controller. Start must be called to bring it up.
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = logging.WithComponent("lifecycle")
	}
	if opts.Diverter == nil {
		opts.Diverter = NoopDiverter{}
	}
	if opts.Shaper == nil {
		opts.Shaper = NoopShaper{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewLinkMetrics()
	}
	if opts.CrashThreshold <= 0 {
		opts.CrashThreshold = 3
	}
	if opts.CrashWindow <= 0 {
		opts.CrashWindow = 5 * time.Minute
	}
	return &Controller{
		opts:   opts,
		logger: opts.Logger,
		runID:  uuid.New(),
	}
}

// RunID returns the correlation ID tagging every log line this controller
// instance emits.
func (c *Controller) RunID() uuid.UUID { return c.runID }

// Start brings the system up in the fixed order: configuration store,
// diverter, shaper, queue engine construction, burst-loss supervisors, then
// the queue engine's receive path. A startup failure unwinds whatever was
// already brought up before returning.
func (c *Controller) Start(ctx context.Context) error {
	c.logger.Info("lifecycle: starting", "run_id", c.runID)

	store, err := linkconfig.NewStore(c.opts.ConfigPath, c.logger.WithComponent("linkconfig"))
	if store == nil {
		return errors.Wrap(err, errors.KindConfigMissing, "lifecycle: configuration store construction failed")
	}
	if err != nil {
		c.logger.Warn("lifecycle: configuration degraded at startup, continuing on defaults", "error", err, "run_id", c.runID)
	}
	c.store = store

	snapshot := store.Snapshot()

	if err := c.opts.Diverter.Up(snapshot); err != nil {
		return errors.Wrap(err, errors.KindKernelQueue, "lifecycle: diverter startup failed")
	}

	if err := c.opts.Shaper.Up(snapshot); err != nil {
		c.safeDivertDown()
		return errors.Wrap(err, errors.KindKernelQueue, "lifecycle: shaper startup failed")
	}

	c.supervisor = burstloss.NewSupervisor(store, c.logger.WithComponent("burstloss"))
	c.supervisor.SetObserver(c.opts.Metrics)

	engine := queueengine.NewEngine(c.opts.Provider, store, c.supervisor, c.logger.WithComponent("queueengine"), c.opts.Seed)
	engine.SetMetrics(c.opts.Metrics)
	if c.opts.EnableCrashSupervision {
		engine.OnCrash(c.recordCrash)
	}
	c.engine = engine

	c.supervisor.Start(c.opts.Seed)

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	if err := engine.Run(runCtx, queueengine.DefaultProviderConfig()); err != nil {
		cancel()
		c.supervisor.Stop()
		c.safeShaperDown()
		c.safeDivertDown()
		return errors.Wrap(err, errors.KindKernelQueue, "lifecycle: queue engine startup failed")
	}

	c.logger.Info("lifecycle: started", "run_id", c.runID)
	return nil
}

// Shutdown tears the system down in reverse order: cancel the engine's
// receive context, join the supervisors, close the queue engine, then the
// shaper, then the diverter. Every step's failure is logged; none aborts
// the remaining steps.
func (c *Controller) Shutdown() {
	c.logger.Info("lifecycle: shutting down", "run_id", c.runID)

	if c.cancel != nil {
		c.cancel()
	}
	if c.supervisor != nil {
		c.supervisor.Stop()
	}
	if c.engine != nil {
		if err := c.engine.Close(); err != nil {
			c.logger.Warn("lifecycle: queue engine teardown failed", "error", err, "run_id", c.runID)
		}
	}
	c.safeShaperDown()
	c.safeDivertDown()

	c.logger.Info("lifecycle: shutdown complete", "run_id", c.runID)
}

func (c *Controller) safeShaperDown() {
	if err := c.opts.Shaper.Down(); err != nil {
		c.logger.Warn("lifecycle: shaper teardown failed", "error", err, "run_id", c.runID)
	}
}

func (c *Controller) safeDivertDown() {
	if err := c.opts.Diverter.Down(); err != nil {
		c.logger.Warn("lifecycle: diverter teardown failed", "error", err, "run_id", c.runID)
	}
}

// recordCrash tracks a dispatch-path panic inside the rolling crash
// window. Once the threshold is reached, it flips the engine into
// impairment-bypass mode and schedules a check to resume once the window
// passes without a further crash.
func (c *Controller) recordCrash() {
	c.crashMu.Lock()
	now := time.Now()
	c.crashes = append(c.crashes, now)
	c.crashes = pruneBefore(c.crashes, now.Add(-c.opts.CrashWindow))
	tripped := len(c.crashes) >= c.opts.CrashThreshold
	count := len(c.crashes)
	c.crashMu.Unlock()

	if !tripped {
		return
	}

	c.logger.Warn("lifecycle: crash threshold reached, entering impairment bypass mode",
		"run_id", c.runID, "window_crashes", count)
	c.engine.SetBypassImpairment(true)
	time.AfterFunc(c.opts.CrashWindow, c.clearBypassIfStable)
}

func (c *Controller) clearBypassIfStable() {
	c.crashMu.Lock()
	c.crashes = pruneBefore(c.crashes, time.Now().Add(-c.opts.CrashWindow))
	stable := len(c.crashes) == 0
	c.crashMu.Unlock()

	if stable {
		c.logger.Info("lifecycle: crash window clear, resuming impairment", "run_id", c.runID)
		c.engine.SetBypassImpairment(false)
	}
}

func pruneBefore(events []time.Time, cutoff time.Time) []time.Time {
	filtered := events[:0]
	for _, t := range events {
		if t.After(cutoff) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
