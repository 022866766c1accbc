// Package guard gates node execution on the human being idle.
package guard

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/autopilot/internal/logging"
	"github.com/aretw0/autopilot/pkg/ports"
)

// Default probe timings.
const (
	DefaultWindow   = 50 * time.Millisecond
	DefaultInterval = 10 * time.Millisecond
	DefaultBackoff  = 5 * time.Second
)

// Decision is the outcome of a gate attempt.
type Decision int

const (
	// Ready means no human input was observed and the node may run.
	Ready Decision = iota
	// Deferred means the node must be retried after Backoff.
	Deferred
)

func (d Decision) String() string {
	if d == Deferred {
		return "deferred"
	}
	return "ready"
}

// Probe is the part of the backend the guard needs.
type Probe interface {
	ports.ActivityProbe
	PointerPosition(ctx context.Context) (x, y int, err error)
}

// Guard samples pointer movement and input state before each node start.
// The probe is a bounded synchronous call; nothing polls in the background.
type Guard struct {
	probe    Probe
	window   time.Duration
	interval time.Duration
	backoff  time.Duration
	sleep    func(time.Duration)
	logger   *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the guard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithWindow sets how long the pointer is watched for movement.
func WithWindow(window, interval time.Duration) Option {
	return func(g *Guard) {
		g.window = window
		g.interval = interval
	}
}

// WithBackoff sets the retry delay after a deferral.
func WithBackoff(backoff time.Duration) Option {
	return func(g *Guard) {
		g.backoff = backoff
	}
}

// WithSleep replaces time.Sleep between pointer samples.
func WithSleep(sleep func(time.Duration)) Option {
	return func(g *Guard) {
		g.sleep = sleep
	}
}

// New creates a guard over probe.
func New(probe Probe, opts ...Option) *Guard {
	g := &Guard{
		probe:    probe,
		window:   DefaultWindow,
		interval: DefaultInterval,
		backoff:  DefaultBackoff,
		sleep:    time.Sleep,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.interval <= 0 {
		g.interval = DefaultInterval
	}
	return g
}

// Backoff is the delay the scheduler waits before retrying a deferred node.
func (g *Guard) Backoff() time.Duration {
	return g.backoff
}

// TryEnter reports whether a node may start now.
// Probe errors are treated as activity: when the machine state is unknown the node waits.
func (g *Guard) TryEnter(ctx context.Context) Decision {
	if ctx.Err() != nil {
		return Deferred
	}

	moved, err := g.pointerMoved(ctx)
	if err != nil {
		g.logger.Warn("pointer probe failed", "error", err)
		return Deferred
	}
	if moved {
		g.logger.Debug("user active", "reason", "pointer")
		return Deferred
	}

	active, err := g.probe.IsHumanInputActive(ctx)
	if err != nil {
		g.logger.Warn("input probe failed", "error", err)
		return Deferred
	}
	if active {
		g.logger.Debug("user active", "reason", "input")
		return Deferred
	}
	return Ready
}

func (g *Guard) pointerMoved(ctx context.Context) (bool, error) {
	x0, y0, err := g.probe.PointerPosition(ctx)
	if err != nil {
		return false, err
	}
	for elapsed := time.Duration(0); elapsed < g.window; elapsed += g.interval {
		g.sleep(g.interval)
		x, y, err := g.probe.PointerPosition(ctx)
		if err != nil {
			return false, err
		}
		if x != x0 || y != y0 {
			return true, nil
		}
	}
	return false, nil
}
