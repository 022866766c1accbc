// Package action replays the input sequence of Action nodes.
package action

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/aretw0/autopilot/internal/logging"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/ports"
)

// Pacing between input primitives.
const (
	ClickSettle = 100 * time.Millisecond
	KeySettle   = 10 * time.Millisecond
	RuneDelay   = 20 * time.Millisecond
)

// Executor drives a Backend through an Action node.
type Executor struct {
	backend ports.Backend
	sleep   func(time.Duration)
	randInt func(n int) int
	logger  *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the executor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithSleep replaces time.Sleep for pacing.
func WithSleep(sleep func(time.Duration)) Option {
	return func(e *Executor) {
		e.sleep = sleep
	}
}

// WithRand replaces the source of click jitter. randInt(n) must return a value in [0, n).
func WithRand(randInt func(n int) int) Option {
	return func(e *Executor) {
		e.randInt = randInt
	}
}

// New creates an executor.
func New(backend ports.Backend, opts ...Option) *Executor {
	e := &Executor{
		backend: backend,
		sleep:   time.Sleep,
		randInt: rand.IntN,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ClickPoint computes where a node is clicked. The base point sits a quarter into the region;
// random clicks add up to half the region size on each axis, fixed clicks add exactly half.
func (e *Executor) ClickPoint(r domain.Rect, random bool) (int, int) {
	x, y := r.X+r.W/4, r.Y+r.H/4
	if !random {
		return x + r.W/2, y + r.H/2
	}
	return x + e.jitter(r.W/2), y + e.jitter(r.H/2)
}

// jitter returns a value in [0, n].
func (e *Executor) jitter(n int) int {
	if n <= 0 {
		return 0
	}
	return e.randInt(n + 1)
}

// Run performs the input sequence of n. The first failing step aborts the rest and is returned
// as a *domain.CaptureError; the caller still treats the node as executed.
func (e *Executor) Run(ctx context.Context, n *domain.Node) error {
	spec := n.Action
	if spec == nil {
		return nil
	}
	fail := func(op string, err error) error {
		return &domain.CaptureError{Node: n.Name, Op: op, Err: err}
	}

	px, py, err := e.backend.PointerPosition(ctx)
	if err != nil {
		return fail("pointer position", err)
	}

	x, y := e.ClickPoint(n.Geometry, spec.ClickRandomPosition)
	e.logger.Debug("click", "node", n.Name, "x", x, "y", y)
	if err := e.backend.MoveAndClick(ctx, x, y); err != nil {
		return fail("click", err)
	}
	e.sleep(ClickSettle)

	if spec.DoubleClick {
		if err := e.backend.Click(ctx); err != nil {
			return fail("double click", err)
		}
		e.sleep(ClickSettle)
	}
	if spec.PressEnter {
		if err := e.backend.PressKey(ctx, ports.KeyEnter); err != nil {
			return fail("press enter", err)
		}
		e.sleep(KeySettle)
	}
	if spec.PressBackspace {
		if err := e.backend.PressKey(ctx, ports.KeyBackspace); err != nil {
			return fail("press backspace", err)
		}
		e.sleep(KeySettle)
	}
	if spec.EnteredText != "" {
		first := true
		for _, r := range spec.EnteredText {
			if !first {
				e.sleep(RuneDelay)
			}
			first = false
			if err := e.backend.TypeText(ctx, string(r)); err != nil {
				return fail("type text", err)
			}
		}
	}
	if spec.MoveMouseBack {
		if err := e.backend.MoveTo(ctx, px, py); err != nil {
			return fail("move back", err)
		}
	}
	return nil
}
